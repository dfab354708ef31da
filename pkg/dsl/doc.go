/*
Package dsl provides a fluent builder for machine configurations.

It is an alternative to YAML files for tests, embedded machines and generated
definitions. Build validates the result exactly like a node would.

Example usage:

	cfg, err := dsl.New("light").
		States("off", "on").
		On("turnOn").From("off").To("on").
		On("turnOff").From("on").To("off").
		On("reset").FromAny().To("off").
		EmitOnNoChange().
		Build()
	if err != nil {
		log.Fatal(err)
	}

	node, err := statenode.New(ctx, cfg)
*/
package dsl
