// Package config loads leakwatch settings from local and global YAML files
// and the rule file. It is internal; CLI code applies flag precedence and
// maps the result into engine configuration.
package config
