package core

// RepoConfig represents the structure of the .pr-warden.yml file that
// repositories may carry to steer their own reviews.
type RepoConfig struct {
	// Custom instructions folded into the review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Tools the agent session may execute, e.g. ["Read", "Grep", "Glob"].
	// Empty means the server-wide default applies.
	AllowedTools []string `yaml:"allowed_tools"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		AllowedTools:       []string{},
	}
}
