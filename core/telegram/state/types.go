package state

// Store keeps one session value per user. Implementations must be safe for
// concurrent use by different users.
type Store[T any] interface {
	// Get returns the session and whether one exists.
	Get(userID int64) (T, bool)
	Set(userID int64, session T)
	Clear(userID int64)
	Len() int
}
