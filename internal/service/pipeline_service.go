package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const (
	ScheduleWindow  = 20 * time.Minute
	StaleRunMessage = "abandoned: run exceeded stale threshold"
)

type PipelineService interface {
	Run(ctx context.Context, req transfer.RunPipelineRequest) (*transfer.RunPipelineResponse, error)
	SweepStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type pipelineService struct {
	st       repository.SettingsRepository
	bk       repository.BucketRepository
	sa       repository.SocialAccountRepository
	pr       repository.PostRepository
	runs     repository.PipelineRunRepository
	captions CaptionService
	gate     quality.Gate
	images   ImageService
	pub      PublishService
	now      func() time.Time
	pick     func(n int) int
}

func NewPipelineService(
	st repository.SettingsRepository,
	bk repository.BucketRepository,
	sa repository.SocialAccountRepository,
	pr repository.PostRepository,
	runs repository.PipelineRunRepository,
	captions CaptionService,
	gate quality.Gate,
	images ImageService,
	pub PublishService) PipelineService {
	return &pipelineService{
		st:       st,
		bk:       bk,
		sa:       sa,
		pr:       pr,
		runs:     runs,
		captions: captions,
		gate:     gate,
		images:   images,
		pub:      pub,
		now:      time.Now,
		pick:     rand.IntN,
	}
}

// Run processes brands one after another. A failure in one brand is
// recorded in its result and never stops the loop.
func (s *pipelineService) Run(ctx context.Context, req transfer.RunPipelineRequest) (*transfer.RunPipelineResponse, error) {
	var brandID int64
	if req.BrandID != nil {
		brandID = *req.BrandID
	}

	brands, err := s.st.ListBrandAutomation(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if brandID != 0 && len(brands) == 0 {
		return nil, &NotFoundError{Resource: "brand", ID: brandID}
	}

	results := make([]transfer.PipelineResult, 0, len(brands))
	for _, b := range brands {
		res := s.runBrand(ctx, b, req)
		slog.Info("pipeline brand processed", "brand_id", res.BrandID, "status", res.Status, "run_id", res.RunID, "reason", res.Reason, "error", res.Error)
		results = append(results, res)
	}

	return &transfer.RunPipelineResponse{Success: true, Results: results}, nil
}

func (s *pipelineService) runBrand(ctx context.Context, b *models.BrandAutomation, req transfer.RunPipelineRequest) (res transfer.PipelineResult) {
	res = transfer.PipelineResult{BrandID: b.ID, BrandName: b.Name}

	// Panics between Open and Run close are handled inside execute.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline brand panicked", "brand_id", b.ID, "panic", r)
			res.Status = transfer.PipelineError
			if res.RunID != 0 {
				res.Status = transfer.PipelineFailed
			}
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if !b.IsEnabled {
		res.Status = transfer.PipelineSkipped
		res.Reason = "automation disabled"
		return res
	}

	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		res.Status = transfer.PipelineError
		res.Error = fmt.Sprintf("invalid timezone %q", b.Timezone)
		return res
	}
	local := s.now().In(loc)

	if req.EnforceSchedule {
		ok, err := WithinRunWindow(local, b.RunTime, ScheduleWindow)
		if err != nil {
			res.Status = transfer.PipelineError
			res.Error = err.Error()
			return res
		}
		if !ok {
			res.Status = transfer.PipelineSkipped
			res.Reason = "outside schedule window"
			return res
		}

		// Scheduled ticks land several times inside one window; any earlier
		// run today, failed ones included, means this brand is done.
		ran, err := s.runs.HasRunSince(ctx, b.ID, scheduledRunCutoff(local, ScheduleWindow))
		if err != nil {
			res.Status = transfer.PipelineError
			res.Error = fmt.Sprintf("failed to check previous runs: %v", err)
			return res
		}
		if ran {
			res.Status = transfer.PipelineSkipped
			res.Reason = "already ran today"
			return res
		}
	}

	buckets, err := s.bk.ListActiveByBrandID(ctx, b.ID)
	if err != nil {
		res.Status = transfer.PipelineError
		res.Error = fmt.Sprintf("failed to load buckets: %v", err)
		return res
	}
	bucket := PickBucket(buckets, local.Weekday(), s.pick)
	if bucket == nil {
		res.Status = transfer.PipelineError
		res.Error = "no active content buckets"
		return res
	}

	acc, err := s.sa.GetOldestByUserID(ctx, b.UserID, models.PlatformInstagram)
	if err != nil {
		res.Status = transfer.PipelineError
		res.Error = fmt.Sprintf("failed to load instagram account: %v", err)
		return res
	}
	if acc == nil {
		res.Status = transfer.PipelineError
		res.Error = "no connected instagram account"
		return res
	}

	md := models.RunMetadata{BucketID: bucket.ID, DryRun: req.DryRun}
	runID, err := s.runs.Open(ctx, b.ID, md)
	if err != nil {
		res.Status = transfer.PipelineError
		res.Error = fmt.Sprintf("failed to open run: %v", err)
		return res
	}
	res.RunID = runID

	md, stack, err := s.execute(ctx, &b.Brand, bucket, acc, md, req.DryRun)
	res.PostID = md.PostID
	res.InstagramPostID = md.InstagramPostID

	if err != nil {
		res.Status = transfer.PipelineFailed
		res.Error = err.Error()
		if closeErr := s.runs.Fail(ctx, runID, md, err.Error(), stack); closeErr != nil {
			slog.Error("failed to close pipeline run", "run_id", runID, "error", closeErr.Error())
		}
		return res
	}

	res.Status = transfer.PipelineSucceeded
	if closeErr := s.runs.Succeed(ctx, runID, md); closeErr != nil {
		slog.Error("failed to close pipeline run", "run_id", runID, "error", closeErr.Error())
	}
	return res
}

// execute covers the steps after a run is open. A failure comes back with a
// trace naming the step; panics carry the goroutine stack as well.
func (s *pipelineService) execute(
	ctx context.Context,
	brand *models.Brand,
	bucket *models.ContentBucket,
	acc *models.SocialAccount,
	md models.RunMetadata,
	dryRun bool) (out models.RunMetadata, stack string, err error) {
	out = md
	step := "caption"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			stack = fmt.Sprintf("step: %s\n%s", step, debug.Stack())
			return
		}
		if err != nil {
			stack = fmt.Sprintf("step: %s\n%+v", step, err)
		}
	}()

	draft, err := s.captions.Draft(ctx, brand, bucket)
	if err != nil {
		return out, "", err
	}

	step = "quality gate"
	gated, err := s.gate.Check(ctx, quality.GateInput{Caption: draft.Caption, RequiredVocab: draft.RequiredVocab})
	if err != nil {
		return out, "", err
	}
	if !gated.Passed {
		return out, "", fmt.Errorf("caption failed quality gate: %s", strings.Join(gated.Violations, "; "))
	}

	hashtags, dropped := quality.FilterHashtags(draft.Hashtags)
	if len(dropped) > 0 {
		slog.Info("dropped non-compliant hashtags", "brand_id", brand.ID, "hashtags", dropped)
	}
	comment := draft.PinnedComment
	if comment != "" && !quality.Compliant(comment) {
		slog.Info("dropped non-compliant pinned comment", "brand_id", brand.ID)
		comment = ""
	}

	step = "image"
	img, err := s.images.Generate(ctx, ImageInput{
		Caption:        gated.Caption,
		FilenamePrefix: fmt.Sprintf("brand-%d", brand.ID),
	})
	if err != nil {
		return out, "", err
	}

	post := &models.Post{
		BrandID:         brand.ID,
		BucketID:        &bucket.ID,
		SocialAccountID: &acc.ID,
		Caption:         gated.Caption,
		Hashtags:        hashtags,
		PinnedComment:   comment,
		ImageURL:        img.ImageURL,
		Status:          models.PostStatusDraft,
	}
	if !dryRun {
		scheduledAt := s.now()
		post.Status = models.PostStatusScheduled
		post.ScheduledAt = &scheduledAt
	}

	step = "create post"
	postID, err := s.pr.Create(ctx, post)
	if err != nil {
		return out, "", err
	}
	post.ID = postID
	out.PostID = postID

	if dryRun {
		return out, "", nil
	}

	step = "publish"
	mediaID, err := s.pub.PublishWith(ctx, post, acc)
	if err != nil {
		if markErr := s.pr.MarkFailed(ctx, postID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return out, "", err
	}
	out.InstagramPostID = mediaID

	return out, "", nil
}

func (s *pipelineService) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.runs.FailStale(ctx, s.now().Add(-olderThan), StaleRunMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("stale pipeline runs closed", "count", n)
	}
	return n, nil
}

// scheduledRunCutoff is the earlier of local midnight and the start of the
// window around now, so a window that spans midnight still counts as one day.
func scheduledRunCutoff(local time.Time, window time.Duration) time.Time {
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	windowStart := local.Add(-2 * window)
	if windowStart.Before(midnight) {
		return windowStart
	}
	return midnight
}

// WithinRunWindow reports whether local is within window of the HH:MM[:SS]
// run time on a 24 hour clock, so 23:50 and 00:05 are 15 minutes apart.
func WithinRunWindow(local time.Time, runTime string, window time.Duration) (bool, error) {
	target, err := parseClock(runTime)
	if err != nil {
		return false, err
	}

	const day = 24 * time.Hour
	current := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second

	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	if diff > day/2 {
		diff = day - diff
	}
	return diff <= window, nil
}

func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid run time %q", s)
}

// PickBucket prefers buckets scheduled for today or unscheduled, and falls
// back to every active bucket when none match.
func PickBucket(buckets []*models.ContentBucket, day time.Weekday, pick func(n int) int) *models.ContentBucket {
	if len(buckets) == 0 {
		return nil
	}

	today := strings.ToLower(day.String())
	var eligible []*models.ContentBucket
	for _, b := range buckets {
		if b.PostingDay == nil || strings.TrimSpace(*b.PostingDay) == "" || strings.EqualFold(strings.TrimSpace(*b.PostingDay), today) {
			eligible = append(eligible, b)
		}
	}
	if len(eligible) == 0 {
		eligible = buckets
	}

	return eligible[pick(len(eligible))]
}
