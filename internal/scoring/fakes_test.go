package scoring

import (
	"context"
	"errors"
)

type fakeEmbedding struct {
	sim float64
	err error
}

func (f fakeEmbedding) Similarity(context.Context, string, string) (float64, error) {
	return f.sim, f.err
}

type fakeClassifier struct {
	cls Classification
	err error
}

func (f fakeClassifier) Classify(context.Context, string, string) (Classification, error) {
	return f.cls, f.err
}

type fakeExtractor map[string][]Keyword

func (f fakeExtractor) Extract(_ context.Context, text string, topN int) ([]Keyword, error) {
	kws, ok := f[text]
	if !ok {
		return nil, errors.New("unexpected text")
	}
	if len(kws) > topN {
		kws = kws[:topN]
	}
	return kws, nil
}

type fakeMetric struct {
	name  string
	score float64
	err   error
}

func (f fakeMetric) Name() string                          { return f.name }
func (f fakeMetric) Score(string, string) (float64, error) { return f.score, f.err }

type fixedDetector Language

func (d fixedDetector) Detect(string) Language { return Language(d) }

type fakeFluency struct {
	score float64
	lang  Language
}

func (f *fakeFluency) Score(_ context.Context, _ string, lang Language) (float64, error) {
	f.lang = lang
	return f.score, nil
}
