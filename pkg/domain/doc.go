/*
Package domain contains the core domain models of the statenode engine.

It defines the declarative description of a machine (states and named transitions),
the values a machine produces (outputs, status and persisted snapshots), the error
taxonomy and the trigger-name normalization rule. This package is kept pure and free
of external dependencies like I/O or persistence.

# Key Entities

  - Transition: a named edge (Name, From, To). From may be the Wildcard.
  - Definition: the ordered state list plus the transitions of one machine.
  - Snapshot: what a StateStore persists for a machine instance.
  - Output: the value emitted downstream after a trigger is processed.
  - Status: the ok/error indicator published after construction and every event.
*/
package domain
