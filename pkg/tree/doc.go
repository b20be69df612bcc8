// Package tree holds the node instances a session owns and the factory that builds them.
package tree
