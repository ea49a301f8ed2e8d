package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/custodia-labs/doctag/internal/adapters/driven/ai"
	"github.com/custodia-labs/doctag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/doctag/internal/adapters/driven/fetch"
	"github.com/custodia-labs/doctag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/doctag/internal/adapters/driving/cli"
	"github.com/custodia-labs/doctag/internal/core/domain"
	"github.com/custodia-labs/doctag/internal/core/ports/driven"
	"github.com/custodia-labs/doctag/internal/core/services"
	"github.com/custodia-labs/doctag/internal/extractors/docx"
	"github.com/custodia-labs/doctag/internal/extractors/pdf"
	"github.com/custodia-labs/doctag/internal/extractors/plaintext"
	"github.com/custodia-labs/doctag/internal/logger"
)

// newBootstrap returns the function that assembles services for a config
// directory. Settings and document storage are required. A missing language
// model or embedder leaves the dependent services nil with the reason recorded.
func newBootstrap(lookupEnv func(string) (string, bool)) cli.Bootstrap {
	return func(ctx context.Context, configDir string) (*cli.Services, func(), error) {
		configStore, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("config: %s", configStore.Path())
		settingsService := services.NewSettingsService(configStore,
			services.WithEnvLookup(lookupEnv),
			services.WithTaxonomyLoader(file.LoadTaxonomy),
		)
		settings, err := settingsService.Get()
		if err != nil {
			return nil, nil, err
		}
		if err := settingsService.Validate(); err != nil {
			logger.Warn("settings: %v", err)
		}

		promptStore, err := file.NewPromptStore(subdir(configDir, "prompts"))
		if err != nil {
			return nil, nil, err
		}

		storageDir := settings.StorageDir
		if storageDir == "" {
			storageDir = subdir(configDir, "data")
		}
		store, err := sqlite.NewStore(storageDir)
		if err != nil {
			return nil, nil, err
		}
		documents := store.DocumentStore()

		out := &cli.Services{
			Documents:      services.NewDocumentService(documents),
			Settings:       settingsService,
			CheckLLM:       ai.CheckLLM,
			CheckEmbedding: ai.CheckEmbedding,
		}

		var closers []func() error
		llm, err := ai.LanguageModelFor(ctx, settings)
		if err != nil {
			out.ClassifierErr = err
			out.CorpusErr = err
		} else {
			closers = append(closers, llm.Close)
			out.ClassifierErr = wireClassifier(out, llm, settings.Taxonomy, documents, promptStore)
			out.CorpusErr = wireCorpus(ctx, out, llm, settings, documents, promptStore, &closers)
		}

		cleanup := func() {
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					logger.Warn("close: %v", err)
				}
			}
			if err := store.Close(); err != nil {
				logger.Warn("close storage: %v", err)
			}
		}
		return out, cleanup, nil
	}
}

func wireClassifier(
	out *cli.Services,
	llm driven.LanguageModel,
	taxonomy domain.Taxonomy,
	documents driven.DocumentStore,
	prompts driven.PromptStore,
) error {
	classifier, err := services.NewClassifierService(llm, taxonomy)
	if err != nil {
		return err
	}
	classifier.SetPromptStore(prompts)

	var opts []services.IngestOption
	if details, err := services.NewDetailsService(llm); err != nil {
		logger.Warn("details extraction disabled: %v", err)
	} else {
		details.SetPromptStore(prompts)
		opts = append(opts, services.WithDetailsService(details))
	}
	if semantics, err := services.NewSemanticsService(llm); err != nil {
		logger.Warn("semantic analysis disabled: %v", err)
	} else {
		semantics.SetPromptStore(prompts)
		opts = append(opts, services.WithSemanticsService(semantics))
	}

	registry := services.NewExtractorRegistry(plaintext.New(), docx.New(), pdf.New())
	out.Classifier = classifier
	out.Ingest = services.NewIngestService(fetch.New(), registry, classifier, documents, opts...)
	out.RemoteIngest = services.NewIngestService(
		fetch.New(fetch.WithRemoteOnly()), registry, classifier, documents, opts...)
	return nil
}

func wireCorpus(
	ctx context.Context,
	out *cli.Services,
	llm driven.LanguageModel,
	settings *domain.AppSettings,
	documents driven.DocumentStore,
	prompts driven.PromptStore,
	closers *[]func() error,
) error {
	embedder, err := ai.EmbedderFor(ctx, settings)
	if err != nil {
		return err
	}
	newIndex, err := ai.NewVectorIndexFactory(settings.Vector)
	if err != nil {
		return errors.Join(err, embedder.Close())
	}
	engine, err := services.NewAnswerEngine(embedder, llm, newIndex, settings.Retrieval)
	if err != nil {
		return errors.Join(err, embedder.Close())
	}
	engine.SetPromptStore(prompts)

	corpus := services.NewCorpusService(documents, engine)
	*closers = append(*closers, embedder.Close, corpus.Close)
	out.Corpus = corpus
	return nil
}

// subdir joins name onto configDir. An empty configDir keeps each store's
// own default under the home directory.
func subdir(configDir, name string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, name)
}
