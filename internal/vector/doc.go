// Package vector holds the numeric helpers shared by the stores and the retriever:
// cosine similarity and the little-endian float32 blob codec used for
// persisted embeddings.
package vector
