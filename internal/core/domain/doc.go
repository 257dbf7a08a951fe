// Package domain contains the core business entities of the document
// question-answering pipeline: documents, sections, retrieval results
// and the errors the services trade in.
package domain
