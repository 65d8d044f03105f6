// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The query path is RetrievalService, Assembler and AnswerService.
// The ingest path is IndexService. Index handles are immutable, so the
// query path needs no locks; builds are serialised per index location.
package services
