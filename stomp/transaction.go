package stomp

// BeginTransaction allocates a fresh transaction id, sends BEGIN with
// receipt, and on success records the id as active (spec §4.6).
func (c *Conn) BeginTransaction() (string, error) {
	id := c.nextTransactionID()
	f := &Frame{Command: BEGIN, Headers: NewHeaders(HeaderTransaction, id)}
	if err := c.sendWithReceipt(f); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.transactions[id] = struct{}{}
	c.mu.Unlock()
	return id, nil
}

// CommitTransaction sends COMMIT with receipt and transaction=id; on
// success, id is removed from the active set.
func (c *Conn) CommitTransaction(id string) error {
	f := &Frame{Command: COMMIT, Headers: NewHeaders(HeaderTransaction, id)}
	if err := c.sendWithReceipt(f); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.transactions, id)
	c.mu.Unlock()
	return nil
}

// AbortTransaction sends ABORT with receipt and transaction=id; on
// success, id is removed from the active set.
func (c *Conn) AbortTransaction(id string) error {
	f := &Frame{Command: ABORT, Headers: NewHeaders(HeaderTransaction, id)}
	if err := c.sendWithReceipt(f); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.transactions, id)
	c.mu.Unlock()
	return nil
}

// smallestTransaction returns the lexicographically smallest active
// transaction id, for deterministic ordering in CommitAll/AbortAll (spec
// §4.6).
func (c *Conn) smallestTransaction() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var min string
	found := false
	for id := range c.transactions {
		if !found || id < min {
			min = id
			found = true
		}
	}
	return min, found
}

// CommitAllTransactions commits every active transaction, smallest id
// first, re-reading the live set after each commit since each commit
// removes its id from that set (spec §4.6).
func (c *Conn) CommitAllTransactions() error {
	for {
		id, ok := c.smallestTransaction()
		if !ok {
			return nil
		}
		if err := c.CommitTransaction(id); err != nil {
			return err
		}
	}
}

// AbortAllTransactions aborts every active transaction, smallest id first.
func (c *Conn) AbortAllTransactions() error {
	for {
		id, ok := c.smallestTransaction()
		if !ok {
			return nil
		}
		if err := c.AbortTransaction(id); err != nil {
			return err
		}
	}
}
