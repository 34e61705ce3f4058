package service_test

import (
	"fmt"

	"truthchain/internal/document/models"
	"truthchain/internal/hashid"
	dErrors "truthchain/pkg/domain-errors"
)

func (s *ServiceSuite) TestSearch() {
	s.Run("query validation", func() {
		cases := []struct {
			name string
			q    models.SearchQuery
		}{
			{"zero page", models.SearchQuery{Page: 0, Limit: 10}},
			{"negative page", models.SearchQuery{Page: -1, Limit: 10}},
			{"zero limit", models.SearchQuery{Page: 1, Limit: 0}},
			{"limit over maximum", models.SearchQuery{Page: 1, Limit: 101}},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				_, err := s.svc.Search(s.ctx, tc.q)
				s.Require().Error(err)
				s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
			})
		}
	})

	s.Run("empty registry yields an empty page", func() {
		result, err := s.svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Empty(result.Documents)
		s.Equal(0, result.Total)
		s.False(result.HasMore)
	})
}

func (s *ServiceSuite) TestSearchPagination() {
	for i := 0; i < 25; i++ {
		s.register(fmt.Sprintf("paginated doc %d", i), "deposition", "")
	}

	seen := make(map[string]int)
	var pages int
	for page := 1; ; page++ {
		result, err := s.svc.Search(s.ctx, models.SearchQuery{Page: page, Limit: 10})
		s.Require().NoError(err)
		s.Equal(25, result.Total)
		for _, doc := range result.Documents {
			seen[doc.Hash]++
		}
		pages++
		if !result.HasMore {
			s.Len(result.Documents, 5)
			break
		}
		s.Len(result.Documents, 10)
	}

	s.Equal(3, pages)
	s.Len(seen, 25)
	for hash, count := range seen {
		s.Equal(1, count, "hash %s appeared on more than one page", hash)
	}

	// Identical queries return identical pages.
	first, err := s.svc.Search(s.ctx, models.SearchQuery{Page: 2, Limit: 10})
	s.Require().NoError(err)
	second, err := s.svc.Search(s.ctx, models.SearchQuery{Page: 2, Limit: 10})
	s.Require().NoError(err)
	s.Require().Equal(len(first.Documents), len(second.Documents))
	for i := range first.Documents {
		s.Equal(first.Documents[i].Hash, second.Documents[i].Hash)
	}
}

func (s *ServiceSuite) TestSearchFilters() {
	s.register("flight log March", "flight-log", "CATS-ZR-0001")
	s.register("flight log April", "flight-log", "CATS-LSJ-0002")
	s.register("deposition of witness", "deposition", "CATS-LSJ-0002")

	s.Run("document type is case-insensitive exact match", func() {
		result, err := s.svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10, DocumentType: "FLIGHT-LOG"})
		s.Require().NoError(err)
		s.Equal(2, result.Total)

		result, err = s.svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10, DocumentType: "flight"})
		s.Require().NoError(err)
		s.Equal(0, result.Total, "partial type must not match")
	})

	s.Run("free text searches title and cats number", func() {
		result, err := s.svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10, FreeText: "march"})
		s.Require().NoError(err)
		s.Equal(1, result.Total)

		result, err = s.svc.Search(s.ctx, models.SearchQuery{Page: 1, Limit: 10, FreeText: "cats-lsj"})
		s.Require().NoError(err)
		s.Equal(2, result.Total)
	})

	s.Run("filters compose", func() {
		result, err := s.svc.Search(s.ctx, models.SearchQuery{
			Page: 1, Limit: 10,
			DocumentType: "flight-log",
			FreeText:     "cats-lsj",
		})
		s.Require().NoError(err)
		s.Equal(1, result.Total)
	})
}

func (s *ServiceSuite) TestLookupCATS() {
	s.register("zorro doc 1", "deposition", "CATS-ZR-0001")
	s.register("zorro doc 2", "memo", "CATS-ZR-0001")
	s.register("island doc", "flight-log", "CATS-LSJ-0007")
	s.register("untracked doc", "memo", "")

	s.Run("groups documents sharing the identifier", func() {
		rec, err := s.svc.LookupCATS(s.ctx, "CATS-ZR-0001")
		s.Require().NoError(err)
		s.Equal("Zorro Ranch", rec.PropertyName)
		s.Equal(2, rec.DocumentCount)
		s.Len(rec.DocumentHashes, 2)
	})

	s.Run("unmapped prefix resolves to the sentinel name", func() {
		s.register("mystery doc", "memo", "CATS-XX-0001")
		rec, err := s.svc.LookupCATS(s.ctx, "CATS-XX-0001")
		s.Require().NoError(err)
		s.Equal("Unknown Property", rec.PropertyName)
	})

	s.Run("unknown identifier", func() {
		_, err := s.svc.LookupCATS(s.ctx, "CATS-ZR-9999")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("empty identifier", func() {
		_, err := s.svc.LookupCATS(s.ctx, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestSearchCATS() {
	s.register("zorro a", "deposition", "CATS-ZR-0001")
	s.register("zorro b", "memo", "CATS-ZR-0001")
	s.register("island a", "flight-log", "CATS-LSJ-0007")
	s.register("city a", "memo", "CATS-NYC-0003")
	s.register("no cats", "memo", "")

	s.Run("groups every identifier once", func() {
		records, err := s.svc.SearchCATS(s.ctx, "", 100)
		s.Require().NoError(err)
		s.Require().Len(records, 3)

		byID := make(map[string]int)
		for _, rec := range records {
			byID[rec.CATSID] = rec.DocumentCount
		}
		s.Equal(2, byID["CATS-ZR-0001"])
		s.Equal(1, byID["CATS-LSJ-0007"])
		s.Equal(1, byID["CATS-NYC-0003"])
	})

	s.Run("filters by property name substring", func() {
		records, err := s.svc.SearchCATS(s.ctx, "james", 100)
		s.Require().NoError(err)
		s.Require().Len(records, 1)
		s.Equal("Little St. James", records[0].PropertyName)
	})

	s.Run("limit caps the group count", func() {
		records, err := s.svc.SearchCATS(s.ctx, "", 2)
		s.Require().NoError(err)
		s.Len(records, 2)
	})

	s.Run("invalid limit", func() {
		_, err := s.svc.SearchCATS(s.ctx, "", 0)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestStats() {
	s.register("stat doc 1", "deposition", "CATS-ZR-0001")
	s.register("stat doc 2", "deposition", "CATS-ZR-0001")
	s.register("stat doc 3", "flight-log", "CATS-LSJ-0007")
	digest, _ := s.register("stat doc 4", "memo", "")

	altered := hashid.Sum([]byte("altered stat doc 4"))
	_, err := s.svc.Flag(s.ctx, digest.String(), altered.String(), "evidence", "registrar-1")
	s.Require().NoError(err)

	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(4), stats.DocumentCount)
	s.Equal(1, stats.ModifiedCount)
	s.Equal(2, stats.UniqueCATS)
	s.Equal(2, stats.DocumentTypes["deposition"])
	s.Equal(1, stats.DocumentTypes["flight-log"])
	s.Equal(1, stats.DocumentTypes["memo"])
}
