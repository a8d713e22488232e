package service

import (
	"context"

	"github.com/Astemirdum/library-lending/lending/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopLimit   = 5
	dashboardPageSize = 12
)

// TopBorrowed ranks the library's titles by number of loans. Percentage
// is relative to the most borrowed title.
func (s *Service) TopBorrowed(ctx context.Context, libraryID int64, limit int) ([]model.Frequency, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	items, err := s.dashboard.TopBorrowed(ctx, libraryID, limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0].Count == 0 {
		return []model.Frequency{}, nil
	}
	maxCount := items[0].Count
	for i := range items {
		items[i].Percentage = items[i].Count * 100 / maxCount
	}
	return items, nil
}

func (s *Service) CurrentlyLent(ctx context.Context, libraryID int64) ([]model.LentBook, error) {
	return s.dashboard.CurrentlyLent(ctx, libraryID)
}

func (s *Service) Dashboard(ctx context.Context, libraryID int64) (model.Dashboard, error) {
	var d model.Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Library, err = s.repo.GetLibrary(ctx, libraryID)
		return err
	})
	g.Go(func() (err error) {
		d.Books, err = s.repo.ListBooks(ctx, libraryID, true, 1, dashboardPageSize)
		return err
	})
	g.Go(func() (err error) {
		d.TotalLoans, err = s.dashboard.CountLoans(ctx, libraryID)
		return err
	})
	g.Go(func() (err error) {
		d.Lent, err = s.CurrentlyLent(ctx, libraryID)
		return err
	})
	g.Go(func() (err error) {
		d.Frequent, err = s.TopBorrowed(ctx, libraryID, DefaultTopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return d, nil
}
