package domain

// Points is a user's balance plus its append-only free-text ledger.
type Points struct {
	UserID string `json:"user_id"`
	Total  int    `json:"total"`
	Ledger string `json:"ledger"`
}

// Board groups everything persisted together for one user.
type Board struct {
	UserID     string `json:"user_id"`
	ShortTasks []Task `json:"short_tasks"`
	LongTasks  []Task `json:"long_tasks"`
	Points     Points `json:"points"`
}

// Tasks returns the list for the given type.
func (b *Board) Tasks(t TaskType) []Task {
	if t == TaskLong {
		return b.LongTasks
	}
	return b.ShortTasks
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	return &Board{
		UserID:     b.UserID,
		ShortTasks: append([]Task(nil), b.ShortTasks...),
		LongTasks:  append([]Task(nil), b.LongTasks...),
		Points:     b.Points,
	}
}
