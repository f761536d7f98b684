package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	stateAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	stateLength   = 32
)

// GenerateState returns a URL safe random token for OAuth redirects.
func GenerateState() (string, error) {
	return gonanoid.Generate(stateAlphabet, stateLength)
}
