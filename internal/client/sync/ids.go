package sync

// assignRemoteID returns the record's existing remote id when one was already
// assigned, and a fresh UUIDv4 string otherwise. Checking first keeps a
// retried push from minting a second identity for the same record.
func (e *Engine) assignRemoteID(existing string) string {
	if existing != "" {
		return existing
	}
	return e.newID()
}
