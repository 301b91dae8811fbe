// Package netsim models the layered network being visualized and the
// simulated forward pass that drives the visualization.
//
// The package defines:
//
//   - [Model]: ordered layers, a token vocabulary and the time-driven
//     activation sweep ("data flowing through the network")
//   - [Layer]: one typed stage with a per-type forward transform
//   - [AttentionHead]: one head of an attention layer producing a
//     row-normalized weight matrix and an output vector
//   - [Renderer]: the drawing primitives a graphics backend provides
//
// None of the computations are a faithful transformer. Attention scoring and
// embedding generation are pluggable through [Scorer] and [Embedder].
//
// # Example
//
//	m := netsim.NewModel(netsim.WithSeed(42))
//	if err := m.InitializeFrom(netsim.DefaultDescription()); err != nil {
//		return err
//	}
//	m.ProcessInput("Hello world")
//	m.Update(1.0 / 60)
//
// # Thread Safety
//
// Models are NOT thread-safe. They are driven from a single frame loop.
package netsim
