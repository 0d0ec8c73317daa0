package tantivy

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/kkanas/tantivy/schema"
)

// recorderKind selects which PostingsRecorder variant a field's
// PostingsWriter dispatches to, resolved once at construction from the
// schema entry (spec.md §4.3).
type recorderKind int

const (
	recordNothing recorderKind = iota
	recordTermFrequency
	recordTFAndPosition
)

func recorderKindFor(entry schema.FieldEntry) recorderKind {
	switch ft := entry.FieldType.(type) {
	case schema.StrType:
		switch ft.Indexing {
		case schema.IndexingFreqAndPosition:
			return recordTFAndPosition
		case schema.IndexingFreq:
			return recordTermFrequency
		default:
			return recordNothing
		}
	case schema.U32Type:
		return recordNothing
	default:
		return recordNothing
	}
}

func newRecorder(kind recorderKind) recorder {
	switch kind {
	case recordTermFrequency:
		return newTermFrequencyRecorder()
	case recordTFAndPosition:
		return newTFAndPositionRecorder()
	default:
		return newNothingRecorder()
	}
}

// termEntry is the per-term bookkeeping a PostingsWriter keeps: the chain
// its flushed postings are appended to, the recorder accumulating the
// currently open doc, and enough state to delta-encode doc ids as they
// close.
type termEntry struct {
	chain      TermChain
	rec        recorder
	docFreq    uint32
	currentDoc DocID
	open       bool
	lastClosed DocID
}

// PostingsWriter accumulates, for one field, a map from term bytes to the
// chain of blocks holding that term's postings (spec.md §4.3).
type PostingsWriter struct {
	field  FieldID
	kind   recorderKind
	terms  map[string]*termEntry
	logger *zap.Logger
}

// NewPostingsWriter builds a PostingsWriter for field, dispatching to the
// recorder variant entry's type/indexing options call for. logger may be
// nil, in which case logging is a no-op.
func NewPostingsWriter(field FieldID, entry schema.FieldEntry, logger *zap.Logger) *PostingsWriter {
	logger = loggerOrNop(logger)
	logger.Debug("postings writer opened",
		zap.Uint8("field", field),
		zap.Int("recorder_kind", int(recorderKindFor(entry))),
	)
	return &PostingsWriter{
		field:  field,
		kind:   recorderKindFor(entry),
		terms:  make(map[string]*termEntry),
		logger: logger,
	}
}

// Subscribe records one occurrence of term at position within docID. It is
// idempotent per (term, doc): the first call for a new doc begins a new
// posting via the recorder, subsequent calls for the same (term, doc) just
// append another position.
func (w *PostingsWriter) Subscribe(bs *BlockStore, docID DocID, position uint32, term Term) error {
	key := string(term)
	e, ok := w.terms[key]
	if !ok {
		e = &termEntry{rec: newRecorder(w.kind)}
		w.terms[key] = e
	}

	if !e.open || e.currentDoc != docID {
		if e.open {
			if err := e.rec.closeDoc(bs, &e.chain, e.lastClosed); err != nil {
				return err
			}
			e.lastClosed = e.currentDoc
			e.docFreq++
		}
		e.rec.newDoc(docID)
		e.currentDoc = docID
		e.open = true
	}

	e.rec.recordPosition(position)
	return nil
}

// IndexText tokenizes each value with a simple UTF-8 whitespace/punctuation
// splitter, assigns positions 0..n continuing across values of the same
// field in the same doc, and emits one Subscribe per token. It returns the
// total number of tokens produced.
func (w *PostingsWriter) IndexText(bs *BlockStore, docID DocID, field FieldID, values []string) (uint32, error) {
	var position uint32
	for _, value := range values {
		for _, token := range tokenize(value) {
			term := TextTerm(field, token)
			if err := w.Subscribe(bs, docID, position, term); err != nil {
				return position, err
			}
			position++
		}
	}
	return position, nil
}

// IndexRaw indexes each value whole as a single term at position 0,
// without tokenizing, for an untokenized Str field (spec.md §4.7.1). It
// returns the number of values indexed.
func (w *PostingsWriter) IndexRaw(bs *BlockStore, docID DocID, field FieldID, values []string) (uint32, error) {
	for i, value := range values {
		term := TextTerm(field, value)
		if err := w.Subscribe(bs, docID, 0, term); err != nil {
			return uint32(i), err
		}
	}
	return uint32(len(values)), nil
}

// tokenize splits s on whitespace and punctuation, lower-casing tokens,
// matching spec.md §4.3's "simple UTF-8 whitespace/punctuation splitter".
// This is hand-written rather than built on a Unicode-segmentation library
// (see DESIGN.md): the contract calls for something far lighter than full
// UAX#29 word-boundary segmentation.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// Close flushes the currently open doc for every term that has one. Called
// once, when the owning SegmentWriter finalizes.
func (w *PostingsWriter) Close(bs *BlockStore) error {
	for _, e := range w.terms {
		if e.open {
			if err := e.rec.closeDoc(bs, &e.chain, e.lastClosed); err != nil {
				w.logger.Error("flushing final doc failed",
					zap.Uint8("field", w.field), zap.Error(err))
				return err
			}
			e.lastClosed = e.currentDoc
			e.docFreq++
			e.open = false
		}
	}
	w.logger.Debug("postings writer closed",
		zap.Uint8("field", w.field), zap.Int("terms", len(w.terms)))
	return nil
}

// sortedTerms returns the writer's terms in strictly increasing
// lexicographic byte order, as required when feeding a
// TermDictionaryWriter (spec.md §4.5).
func (w *PostingsWriter) sortedTerms() []string {
	keys := make([]string, 0, len(w.terms))
	for k := range w.terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Serialize iterates this writer's terms in lexicographic order, writing
// each one's packed posting list to postingsOut and a (term, TermInfo)
// entry to dict. Entries with a zero doc_freq are a bug (every term in
// w.terms was subscribed at least once) and are rejected defensively.
func (w *PostingsWriter) Serialize(bs *BlockStore, postingsOut *postingsFileWriter, dict *TermDictionaryWriter) error {
	for _, key := range w.sortedTerms() {
		e := w.terms[key]
		if e.docFreq == 0 {
			err := fmt.Errorf("%w: term with zero doc_freq reached serialize", ErrCorruptedSegment)
			w.logger.Error("serialize rejected term", zap.Uint8("field", w.field), zap.Error(err))
			return err
		}

		offset, err := postingsOut.writePostingList(bs, w.kind, e)
		if err != nil {
			w.logger.Error("writing posting list failed", zap.Uint8("field", w.field), zap.Error(err))
			return err
		}

		if err := dict.Insert([]byte(key), TermInfo{DocFreq: e.docFreq, PostingsOffset: offset}); err != nil {
			w.logger.Error("dictionary insert failed", zap.Uint8("field", w.field), zap.Error(err))
			return err
		}
	}
	w.logger.Debug("postings writer serialized", zap.Uint8("field", w.field), zap.Int("terms", len(w.terms)))
	return nil
}
