// Package connectors holds sources that feed documents into the knowledge
// base from outside the upload and web acquisition paths.
package connectors
