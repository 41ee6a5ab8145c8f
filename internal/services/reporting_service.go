package services

import (
	"context"
	"sort"

	"github.com/cockroachdb/apd/v3"

	"freelancer/internal/domain"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/validation"
)

// reportingServiceImpl implements the ReportingService interface
type reportingServiceImpl struct {
	repo               sqlite.Repository
	mapper             *domain.Mapper
	timeEntryValidator *validation.TimeEntryValidator
	clock              Clock
}

// NewReportingService creates a new ReportingService instance
func NewReportingService(repo sqlite.Repository, validator *validation.TimeEntryValidator, clock Clock) ReportingService {
	return &reportingServiceImpl{
		repo:               repo,
		mapper:             domain.NewMapper(),
		timeEntryValidator: validator,
		clock:              clock,
	}
}

// SummarizeSince parses a shorthand such as "1w" and summarizes the work
// started in that window up to now.
func (r *reportingServiceImpl) SummarizeSince(ctx context.Context, userID int64, shorthand string) (*WorkSummary, error) {
	now := r.clock.Now()
	from, err := r.timeEntryValidator.ParseSince(shorthand, now)
	if err != nil {
		return nil, err
	}
	return r.Summarize(ctx, userID, domain.SearchOptions{From: &from, To: &now})
}

// Summarize groups the matching entries by project. Running entries are
// counted but add no minutes; unbilled amounts use the project's hourly rate.
func (r *reportingServiceImpl) Summarize(ctx context.Context, userID int64, opts domain.SearchOptions) (*WorkSummary, error) {
	if err := r.timeEntryValidator.ValidateSearchOptions(opts); err != nil {
		return nil, err
	}

	dbEntries, err := r.repo.SearchTimeEntries(ctx, r.mapper.SearchOptions.ToDatabase(userID, opts))
	if err != nil {
		return nil, err
	}
	entries := r.mapper.TimeEntry.FromDatabaseSlice(dbEntries)

	byProject := make(map[int64]*ProjectActivity)
	for _, entry := range entries {
		activity, ok := byProject[entry.ProjectID]
		if !ok {
			activity = &ProjectActivity{ProjectID: entry.ProjectID}
			byProject[entry.ProjectID] = activity
		}
		activity.EntryCount++

		if entry.IsRunning() {
			activity.Running = true
			continue
		}
		minutes := *entry.DurationMinutes
		activity.TotalMinutes += minutes
		if entry.IsBillable {
			activity.BillableMinutes += minutes
			if !entry.IsBilled {
				activity.UnbilledMinutes += minutes
			}
		}
	}

	summary := &WorkSummary{From: opts.From, To: opts.To, Projects: make([]*ProjectActivity, 0, len(byProject))}
	for projectID, activity := range byProject {
		dbProject, err := r.repo.GetProject(ctx, userID, projectID)
		if err != nil {
			return nil, err
		}
		project, err := r.mapper.Client.ProjectFromDatabase(*dbProject)
		if err != nil {
			return nil, err
		}
		activity.ProjectName = project.Name

		if project.HourlyRate != nil {
			amount, err := domain.BillableAmount(activity.UnbilledMinutes, *project.HourlyRate)
			if err != nil {
				return nil, err
			}
			activity.UnbilledAmount = &amount
		}

		summary.TotalMinutes += activity.TotalMinutes
		summary.BillableMinutes += activity.BillableMinutes
		summary.UnbilledMinutes += activity.UnbilledMinutes
		summary.Projects = append(summary.Projects, activity)
	}

	sort.Slice(summary.Projects, func(i, j int) bool {
		if summary.Projects[i].TotalMinutes != summary.Projects[j].TotalMinutes {
			return summary.Projects[i].TotalMinutes > summary.Projects[j].TotalMinutes
		}
		return summary.Projects[i].ProjectID < summary.Projects[j].ProjectID
	})
	return summary, nil
}

// ProjectActivity is the time logged against one project
type ProjectActivity struct {
	ProjectID       int64
	ProjectName     string
	EntryCount      int
	TotalMinutes    int
	BillableMinutes int
	UnbilledMinutes int
	UnbilledAmount  *apd.Decimal
	Running         bool
}
