/*
Package coordinator implements the game coordination state machine.

A Coordinator owns no state of its own: every operation loads the scope's Session
through a session.Manager, applies the transition under the scope lock and saves it
back. The machine has two states, Idle and Active:

	Idle   --Start-->             Active
	Active --OptIn/OptOut-->      Active
	Active --FinishOptIn-->       Active   (advisory only)
	Active --Finalize-->          Idle     (private channel + summary posted)
	Active --Cancel-->            Idle

FinishOptIn, Finalize and Cancel are reserved for the initiator. Finalize only leaves
Active once every chat-platform side effect succeeded, so a failed Finalize can simply
be retried.
*/
package coordinator
