// Package factory provides a small generic registry used to build pluggable
// modules (metrics sinks, step log backends) from configuration. A module is
// named by a type string and carries a map of raw settings which the
// registered constructor decodes into its own typed struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("prometheus", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c struct{ Namespace string `json:"namespace"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newPromSink(c.Namespace)
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "prometheus"})
package factory
