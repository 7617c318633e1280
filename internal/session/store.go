package session

// Keys of the two persisted credential slots
const (
	TokenKey = "admin_token"
	UserKey  = "admin_user"
)

// Store is the key-value storage holding the persisted credential record.
// Get reports ok=false for a missing key; Delete of a missing key is a no-op.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
