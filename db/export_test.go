package db

import "sync"

// resetEncryptorForTest clears the lazily initialized encryptor so tests can
// exercise both the plaintext and encrypted storage paths.
func resetEncryptorForTest() {
	encryptorOnce = sync.Once{}
	encryptor = nil
	encryptorErr = nil
}
