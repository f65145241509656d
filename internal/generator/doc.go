/*
Package generator turns parameterized module-building functions into cached,
finalized modules.

A Generator pairs a function with the param class it accepts. Generating a
module validates the arguments into a *params.Params record, then looks up
(generator, record) in the Elaborator's Cache. On a miss the function runs,
its module is named (if it has no name), bound to the generator, finalized
and stored; later calls with an equal record return the identical module.

Modules the function creates but does not return are never cached. They are
reachable only through instances of the returned module, which is all the
visibility they get.

The cache is safe for concurrent use. For every key the function runs at
most once, even when several goroutines ask for it at the same time.
*/
package generator
