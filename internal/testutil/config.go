package testutil

import "os"

const (
	// Test credential environment variables
	TestEbayAppID = "TEST_EBAY_APP_ID"

	// Default test value when the environment variable is not set
	DefaultTestAppID = "test-app-id"
)

// GetTestToken returns a test token from environment variable or default
func GetTestToken(envVar, defaultValue string) string {
	if token := os.Getenv(envVar); token != "" {
		return token
	}
	return defaultValue
}

// GetTestEbayAppID returns the app ID to use against the marketplace API in tests
func GetTestEbayAppID() string {
	return GetTestToken(TestEbayAppID, DefaultTestAppID)
}
