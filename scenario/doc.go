// Package scenario loads declarative effect scenarios from YAML files and runs
// them against registered actions.
//
// A scenario names an action, the collaborator state it starts from, the
// payload it is called with and the ordered effects it must emit:
//
//	name: increment-and-log
//	action: counter.increment
//	state:
//	  count: 0
//	expect:
//	  - kind: mutation
//	    name: increment
//	  - kind: dispatch
//	    name: console
//	    payload: {msg: hello}
//
// Files are decoded strictly (unknown keys are errors), checked against an
// embedded CUE schema and then validated field by field.
package scenario
