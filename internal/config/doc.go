// Package config provides configuration structures and utilities for storeprofile.
// It defines the options for fetching storefront data, clustering products,
// writing artifacts and keeping the profile history, plus per-store
// overrides loaded from a YAML file.
package config
