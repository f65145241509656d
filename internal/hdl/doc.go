/*
Package hdl is the structural object model: modules, signals, ports,
interfaces and instances, together with the connection resolver that keeps a
module's wiring table consistent.

A Module owns an ordered set of uniquely named members. Members form a closed
variant (see Member): a *Signal (which is a port when it carries a
direction), an *Interface, or an *Instance of another Module or
ExternalModule. Instances are connected either one port at a time
(Instance.Connect, the assignment style) or as a batch (Instance.ConnectAll,
the call style). Both paths go through the same validation and end up in the
same table:

	inv := m.MustInstance("u1", inverter, nil)
	_, err := inv.ConnectAll(hdl.Conns{"i": a, "o": mid})

A Module becomes immutable once Finalize succeeds. Finalized modules may be
shared across many instances and goroutines without locking.
*/
package hdl
