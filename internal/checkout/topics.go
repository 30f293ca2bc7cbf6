package checkout

const TopicCheckoutCompleted = "checkout.completed"

// Partition key = txn_id so every event for one checkout stays ordered.
func PartitionKey(txnID string) []byte { return []byte(txnID) }
