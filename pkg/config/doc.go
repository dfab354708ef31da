/*
Package config loads and validates statenode machine configurations.

Files may be YAML or JSON. Besides the canonical keys, the legacy keys of the original
host node are understood: throwException (reportOnInvalidTrigger) and
outputStateChangeOnly (the inverse of emitOnNoChange).

	name: light
	states: [off, on]
	transitions:
	  - {name: turnOn, from: off, to: on}
	  - {name: turnOff, from: on, to: off}
	  - {name: reset, from: "*", to: off}
	initialDelay: 2
	persistOnReload: true
	reportOnInvalidTrigger: true
*/
package config
