// Package tensorcheck provides gopter generators for gorgonia tensors and
// small neural-network modules: dtypes, shapes, devices, dense tensors with
// constrained elements, fully connected networks, and transformer-style
// hyperparameter configurations (see the transformer subpackage).
//
// Generators are configured through value-receiver option builders and drawn
// through the property engine:
//
//	properties := gopter.NewProperties(tensorcheck.Parameters())
//	properties.Property("forward keeps the batch", prop.ForAll(
//		func(t *tensor.Dense) bool { ... },
//		tensorcheck.Tensors(tensorcheck.NewTensorOptions().WithDTypes(tensor.Float64)),
//	))
//
// Parameters seeds the run from TENSORCHECK_SEED so failures replay exactly.
// Default generators for common types are registered at import time and
// retrievable with ForType.
package tensorcheck
