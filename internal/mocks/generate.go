// Package mocks provides mock implementations for testing the skim summarization service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our core interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockGen := mocks.NewMockGenerator(ctrl)
//	mockGen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(reply, nil)
package mocks

// Generate mock for Generator interface from internal/core package.
// This creates MockGenerator with methods for all Generator interface methods:
// Generate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=generator_mock.go github.com/skimworks/skim-api/internal/core Generator

// Generate mock for Tokenizer interface from internal/core package.
// This creates MockTokenizer with methods for all Tokenizer interface methods:
// Encode, Decode, Count
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=tokenizer_mock.go github.com/skimworks/skim-api/internal/core Tokenizer

// Generate mock for ArticleFetcher interface from internal/core package.
// This creates MockArticleFetcher with methods for all ArticleFetcher interface methods:
// Fetch
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=article_fetcher_mock.go github.com/skimworks/skim-api/internal/core ArticleFetcher

// Generate mock for SummaryRepository interface from internal/core package.
// This creates MockSummaryRepository with methods for all SummaryRepository interface methods:
// Upsert, GetByURL, List, DeleteOlderThan
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=summary_repository_mock.go github.com/skimworks/skim-api/internal/core SummaryRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/skimworks/skim-api/internal/core CacheRepository
