package relay

import "os"

// KeySource resolves the upstream credential for one invocation.
type KeySource interface {
	// Name is the credential name reported when it is missing.
	Name() string
	APIKey() (string, bool)
}

// EnvKey reads the credential from the process environment on every call.
type EnvKey string

func (k EnvKey) Name() string {
	return string(k)
}

func (k EnvKey) APIKey() (string, bool) {
	v, ok := os.LookupEnv(string(k))
	return v, ok && v != ""
}

// StaticKey is a fixed credential, mostly useful in tests.
type StaticKey struct {
	KeyName string
	Value   string
}

func (k StaticKey) Name() string {
	return k.KeyName
}

func (k StaticKey) APIKey() (string, bool) {
	return k.Value, k.Value != ""
}
