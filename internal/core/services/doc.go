// Package services implements the driving port interfaces.
// Services hold the ingestion, retrieval and chat logic and reach
// storage, providers and extractors only through driven ports.
package services
