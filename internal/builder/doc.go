/*
Package builder constructs a Module from declarations given in any order.

Each call on a Builder (Signal, Port, Interface, Instance, Connect,
ConnectAll, Declare) records a pending declaration instead of touching a
module. Declarations name the members they read through symbolic references
(Ref, Bit, Range, PortOf, Field), so an instance may be connected to a
signal, or to another instance's port, that is declared further down.

Build works in three phases:

 1. Static checks: every member name is declared once (DuplicateMemberError)
    and every reference names a declared member (UndefinedReferenceError).

 2. Fixed-point evaluation: pending declarations are evaluated in source
    order. A declaration whose references are not materialized yet is
    suspended and retried on the next pass. Nothing is added to the module
    until all of a declaration's references resolve.

 3. Cycle reporting: a pass that makes no progress means the remaining
    declarations wait on each other. They are loaded into a dag.Graph and
    the cycle found there is reported as a CyclicReferenceError.

The result does not depend on declaration order: any permutation of an
acyclic set of declarations yields the same members and wiring.
*/
package builder
