package rscache

import "slices"

func sortTokens(toks []*RecordToken, tc *TokenComparer) {
	slices.SortFunc(toks, tc.Compare)
}
