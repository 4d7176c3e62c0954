package tx

import "fmt"

// BroadcastPreparationError means the node refused to build a raw
// transaction. Nothing reached the network; retrying from scratch is safe.
type BroadcastPreparationError struct {
	Err error
}

func (e *BroadcastPreparationError) Error() string {
	return fmt.Sprintf("failed to create raw tx: %v", e.Err)
}

func (e *BroadcastPreparationError) Unwrap() error { return e.Err }

// BroadcastError means submission of a signed transaction failed. The node
// may still have accepted it; check the sender nonce before any retry that
// moves funds.
type BroadcastError struct {
	From  string
	Nonce uint64
	Err   error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("failed to broadcast tx (from %s, nonce %d): %v", e.From, e.Nonce, e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// ConfirmationTimeoutError means the poll budget ran out. The transaction is
// already broadcast; Wait can be called again with the same hash.
type ConfirmationTimeoutError struct {
	Hash     string
	Attempts int
	Err      error
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("tx %s not confirmed after %d attempts: %v", e.Hash, e.Attempts, e.Err)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return e.Err }

// ExecutionRevertedError means the transaction was mined but failed, either
// with a nonzero result code or a tx.error event. Log is the chain's text.
type ExecutionRevertedError struct {
	Hash string
	Code uint64
	Log  string
}

func (e *ExecutionRevertedError) Error() string {
	return fmt.Sprintf("tx %s failed (code %d): %s", e.Hash, e.Code, e.Log)
}
