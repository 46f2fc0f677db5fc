// Package factory instantiates pluggable modules (predictors, metrics sinks)
// from configuration. A module is named by a type string and configured by a
// map of raw settings that its factory decodes into a typed struct:
//
//	reg := factory.NewRegistry[prediction.Model]()
//	reg.Register("persistence", func(conf map[string]any) (prediction.Model, error) {
//	    var c struct{ Variable string `json:"variable"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return &prediction.Persistence{Variable: c.Variable}, nil
//	})
//	m, err := reg.Create(factory.ModuleConfig{Type: "persistence"})
package factory
