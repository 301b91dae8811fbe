// Package analysis provides spectral tools for recorded activation traces.
//
// A headless run records one mean activation value per frame. The sweep of
// activation through the layers is periodic, so its period can be read off
// the power spectrum of that trace:
//
//	period, ok := analysis.DominantPeriod(trace)
//	if ok {
//	    fmt.Printf("sweep repeats every %.0f frames\n", period)
//	}
package analysis
