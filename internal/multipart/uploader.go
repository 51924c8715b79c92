package multipart

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wal-g/relaysum/internal/checksum"
	"github.com/wal-g/relaysum/internal/pipeline"
	"github.com/wal-g/relaysum/internal/relay"
	"github.com/wal-g/relaysum/internal/splitmerge"
	"github.com/wal-g/relaysum/internal/storages/storage"
)

const (
	DefaultPartSize    = 8 << 20
	DefaultConcurrency = 4
	DefaultRetries     = 3
)

type Config struct {
	Algorithm   checksum.Algorithm
	PartSize    int64
	ChunkSize   int
	Concurrency int
	Retries     uint64
}

func (config Config) withDefaults() Config {
	if config.Algorithm == "" {
		config.Algorithm = checksum.DefaultAlgorithm
	}
	if config.PartSize <= 0 {
		config.PartSize = DefaultPartSize
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = pipeline.DefaultChunkSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return config
}

type Option func(*Uploader)

// WithCheckpoints makes uploads resumable through store.
func WithCheckpoints(store CheckpointStore) Option {
	return func(uploader *Uploader) {
		uploader.checkpoints = store
	}
}

// WithLimiter throttles the bytes read from the payload.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(uploader *Uploader) {
		uploader.limiter = limiter
	}
}

func WithSerializer(serializer DtoSerializer) Option {
	return func(uploader *Uploader) {
		uploader.serializer = serializer
	}
}

// WithBackOff replaces the policy used between part upload attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(uploader *Uploader) {
		uploader.newBackOff = newBackOff
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

// Uploader streams a payload into a multipart object. Parts are hashed one after
// another by a chain of relay stages, so the final handoff holds the digest of
// the whole object, while finished parts are uploaded concurrently.
type Uploader struct {
	folder      storage.MultipartFolder
	config      Config
	serializer  DtoSerializer
	checkpoints CheckpointStore
	limiter     *rate.Limiter
	newBackOff  func() backoff.BackOff
}

func NewUploader(folder storage.MultipartFolder, config Config, opts ...Option) (*Uploader, error) {
	config = config.withDefaults()
	if _, err := checksum.NewCalculator(config.Algorithm); err != nil {
		return nil, err
	}
	uploader := &Uploader{
		folder:     folder,
		config:     config,
		serializer: RegularJSON{},
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(uploader)
	}
	return uploader, nil
}

func (uploader *Uploader) Config() Config {
	return uploader.config
}

// Upload stores everything read from reader under key and writes its manifest.
// A failed upload is aborted unless a checkpoint lets a later call resume it;
// resuming requires reader to deliver the same payload from its start.
func (uploader *Uploader) Upload(ctx context.Context, key string, reader io.Reader) (*Manifest, error) {
	session, prior, err := uploader.begin(ctx, key)
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	manifest, err := uploader.run(ctx, session, prior, reader)
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		return nil, uploader.fail(session, err)
	}
	uploadsTotal.WithLabelValues("completed").Inc()
	return manifest, nil
}

func (uploader *Uploader) begin(ctx context.Context, key string) (*uploadSession, *relay.Handoff, error) {
	session := newUploadSession(key)
	if uploader.checkpoints != nil {
		checkpoint, err := uploader.checkpoints.Load(ctx, key)
		var invalid InvalidDtoError
		if errors.As(err, &invalid) {
			tracelog.WarningLogger.Printf("Dropping checkpoint of %s: %v\n", key, err)
			checkpoint, err = nil, uploader.checkpoints.Delete(ctx, key)
		}
		if err != nil {
			return nil, nil, err
		}
		if checkpoint != nil {
			handoff, err := uploader.resume(ctx, session, checkpoint)
			if err == nil {
				return session, handoff, nil
			}
			tracelog.WarningLogger.Printf("Ignoring checkpoint of %s: %v\n", key, err)
		}
	}

	uploadID, err := uploader.folder.CreateUpload(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	session.uploadID = uploadID
	handoff, err := relay.NewHandoff(uploader.config.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	tracelog.InfoLogger.Printf("Started upload %s of %s\n", uploadID, key)
	return session, handoff, nil
}

func (uploader *Uploader) resume(ctx context.Context, session *uploadSession,
	checkpoint *Checkpoint) (*relay.Handoff, error) {
	err := uploader.checkResumable(checkpoint)
	if err == nil {
		var handoff *relay.Handoff
		handoff, err = checkpoint.handoff()
		if err == nil {
			session.restore(checkpoint)
			tracelog.InfoLogger.Printf("Resuming upload %s of %s after %d parts\n",
				checkpoint.UploadID, checkpoint.Key, len(checkpoint.Parts))
			return handoff, nil
		}
	}
	if abortErr := uploader.folder.AbortUpload(ctx, checkpoint.Key, checkpoint.UploadID); abortErr != nil {
		tracelog.WarningLogger.Printf("Failed to abort stale upload %s: %v\n", checkpoint.UploadID, abortErr)
	}
	return nil, err
}

func (uploader *Uploader) checkResumable(checkpoint *Checkpoint) error {
	if checkpoint.Algorithm != string(uploader.config.Algorithm) {
		return errors.Errorf("checkpoint uses %s, uploader uses %s", checkpoint.Algorithm, uploader.config.Algorithm)
	}
	if checkpoint.PartSize != uploader.config.PartSize {
		return errors.Errorf("checkpoint part size %d differs from %d", checkpoint.PartSize, uploader.config.PartSize)
	}
	return nil
}

func (uploader *Uploader) run(ctx context.Context, session *uploadSession, prior *relay.Handoff,
	reader io.Reader) (*Manifest, error) {
	splitter, err := splitmerge.NewPartSplitter(reader, uploader.config.PartSize)
	if err != nil {
		return nil, err
	}
	if err = splitter.Skip(session.prefix); err != nil {
		return nil, errors.Wrapf(err, "failed to skip uploaded parts of '%s'", session.key)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uploader.config.Concurrency)
	last, hashErr := uploader.hashParts(groupCtx, group, session, splitter, prior)
	if err = group.Wait(); err != nil {
		return nil, err
	}
	if hashErr != nil {
		return nil, hashErr
	}

	digest, err := last.Finalize()
	if err != nil {
		return nil, err
	}
	parts := session.completedParts()
	if err = uploader.folder.CompleteUpload(ctx, session.key, session.uploadID, parts); err != nil {
		return nil, err
	}
	manifest := newManifest(session.key, session.uploadID, uploader.config.PartSize, digest, parts)
	if err = WriteManifest(ctx, uploader.folder, uploader.serializer, manifest); err != nil {
		return nil, err
	}
	if uploader.checkpoints != nil {
		if err = uploader.checkpoints.Delete(ctx, session.key); err != nil {
			tracelog.WarningLogger.Printf("Failed to delete checkpoint of %s: %v\n", session.key, err)
		}
	}
	tracelog.InfoLogger.Printf("Uploaded %s: %d bytes in %d parts, %s\n", session.key, digest.Size, len(parts), digest)
	return manifest, nil
}

// hashParts relays the parts through chained stages on the calling goroutine and
// hands every finished part to the group. It returns the handoff of the last stage.
func (uploader *Uploader) hashParts(ctx context.Context, group *errgroup.Group, session *uploadSession,
	splitter *splitmerge.PartSplitter, prior *relay.Handoff) (*relay.Handoff, error) {
	for number := session.prefix + 1; ; number++ {
		part, err := splitter.Next()
		if err == io.EOF {
			return prior, nil
		}
		if err != nil {
			return nil, err
		}
		body, next, err := uploader.hashPart(ctx, session, number, part, prior)
		if err != nil {
			return nil, err
		}
		prior = next
		number := number
		group.Go(func() error {
			return uploader.uploadPart(ctx, session, number, body)
		})
	}
}

type partBody struct {
	data       []byte
	contentMD5 []byte
}

func (uploader *Uploader) hashPart(ctx context.Context, session *uploadSession, number int, part io.Reader,
	prior *relay.Handoff) (*partBody, *relay.Handoff, error) {
	var next *relay.Handoff
	stage, err := relay.NewStage(prior, func(handoff *relay.Handoff) error {
		if uploader.checkpoints != nil {
			session.snapshot(number, handoff)
		}
		next = handoff
		return nil
	}, relay.WithName(fmt.Sprintf("%s part %d", session.key, number)))
	if err != nil {
		return nil, nil, err
	}

	partMD5, err := checksum.NewCalculator(checksum.MD5)
	if err != nil {
		return nil, nil, err
	}
	var buffer bytes.Buffer
	var source pipeline.Source = pipeline.NewReaderSource(part, uploader.config.ChunkSize, relay.EncodingBuffer)
	if uploader.limiter != nil {
		source = pipeline.NewLimitedSource(source, uploader.limiter)
	}
	sink := pipeline.NewWriterSink(checksum.CreateWriterWithChecksum(&buffer, partMD5))
	if err = pipeline.Run(ctx, source, stage, sink); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to relay part %d of '%s'", number, session.key)
	}
	contentMD5, err := partMD5.Finalize()
	if err != nil {
		return nil, nil, err
	}
	return &partBody{data: buffer.Bytes(), contentMD5: contentMD5.Sum}, next, nil
}

func (uploader *Uploader) uploadPart(ctx context.Context, session *uploadSession, number int, body *partBody) error {
	var etag string
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			partRetriesTotal.Inc()
		}
		var err error
		etag, err = uploader.folder.UploadPart(ctx, session.key, session.uploadID, number, body.data, body.contentMD5)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		tracelog.WarningLogger.Printf("Attempt %d to upload part %d of %s failed: %v\n", attempt, number, session.key, err)
		return err
	}

	var b backoff.BackOff = uploader.newBackOff()
	b = backoff.WithMaxRetries(b, uploader.config.Retries)
	b = backoff.WithContext(b, ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return errors.Wrapf(err, "failed to upload part %d of '%s'", number, session.key)
	}

	partsUploadedTotal.Inc()
	partBytesTotal.Add(float64(len(body.data)))
	tracelog.DebugLogger.Printf("Uploaded part %d of %s: %d bytes\n", number, session.key, len(body.data))

	session.complete(ctx, uploader.checkpoints, storage.CompletedPart{
		Number:     number,
		ETag:       etag,
		Size:       int64(len(body.data)),
		ContentMD5: base64.StdEncoding.EncodeToString(body.contentMD5),
	}, uploader.config)
	return nil
}

func isPermanent(err error) bool {
	var badDigest storage.BadDigestError
	var notFound storage.UploadNotFoundError
	return errors.As(err, &badDigest) || errors.As(err, &notFound)
}

// fail cleans up after a failed attempt and returns the error to report.
// The upload is kept only while a checkpoint can still resume it.
func (uploader *Uploader) fail(session *uploadSession, cause error) error {
	var notFound storage.UploadNotFoundError
	if errors.As(cause, &notFound) {
		if session.hasCheckpoint() {
			tracelog.WarningLogger.Printf("Upload %s of %s is gone, dropping its checkpoint\n", session.uploadID, session.key)
			if err := uploader.checkpoints.Delete(context.Background(), session.key); err != nil {
				return errors.Wrapf(cause, "failed to drop checkpoint of '%s' (%v)", session.key, err)
			}
		}
		return errors.Wrapf(cause, "upload of '%s' no longer exists, the next attempt starts over", session.key)
	}
	if session.hasCheckpoint() {
		tracelog.WarningLogger.Printf("Upload %s of %s failed, keeping it for resume: %v\n",
			session.uploadID, session.key, cause)
		return cause
	}
	tracelog.WarningLogger.Printf("Aborting upload %s of %s: %v\n", session.uploadID, session.key, cause)
	if err := uploader.folder.AbortUpload(context.Background(), session.key, session.uploadID); err != nil {
		tracelog.ErrorLogger.Printf("Failed to abort upload %s of %s: %v\n", session.uploadID, session.key, err)
	}
	return cause
}

type relaySnapshot struct {
	state   []byte
	written int64
}

// uploadSession tracks the finished parts of one upload and the relay state
// right after each part that is still in flight.
type uploadSession struct {
	mutex        sync.Mutex
	key          string
	uploadID     string
	parts        map[int]storage.CompletedPart
	snapshots    map[int]relaySnapshot
	prefix       int
	checkpointed bool
}

func newUploadSession(key string) *uploadSession {
	return &uploadSession{
		key:       key,
		parts:     map[int]storage.CompletedPart{},
		snapshots: map[int]relaySnapshot{},
	}
}

func (session *uploadSession) restore(checkpoint *Checkpoint) {
	session.uploadID = checkpoint.UploadID
	for _, part := range checkpoint.Parts {
		session.parts[part.Number] = part
	}
	session.prefix = len(checkpoint.Parts)
	session.checkpointed = true
}

func (session *uploadSession) snapshot(number int, handoff *relay.Handoff) {
	state, err := handoff.State()
	if err != nil {
		tracelog.WarningLogger.Printf("Cannot checkpoint part %d of %s: %v\n", number, session.key, err)
		return
	}
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.snapshots[number] = relaySnapshot{state: state, written: handoff.Written()}
}

// complete records part and, once the contiguous prefix grows, saves a checkpoint.
// Checkpoints are saved under the session lock so they never go backwards.
func (session *uploadSession) complete(ctx context.Context, store CheckpointStore, part storage.CompletedPart,
	config Config) {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	session.parts[part.Number] = part
	advanced := false
	for {
		if _, ok := session.parts[session.prefix+1]; !ok {
			break
		}
		session.prefix++
		advanced = true
	}
	if !advanced || store == nil {
		return
	}
	snapshot, ok := session.snapshots[session.prefix]
	if !ok {
		return
	}
	checkpoint := &Checkpoint{
		Key:       session.key,
		UploadID:  session.uploadID,
		Algorithm: string(config.Algorithm),
		PartSize:  config.PartSize,
		Parts:     session.sortedParts(session.prefix),
		State:     base64.StdEncoding.EncodeToString(snapshot.state),
		Written:   snapshot.written,
	}
	if err := store.Save(ctx, checkpoint); err != nil {
		tracelog.WarningLogger.Printf("Failed to save checkpoint of %s: %v\n", session.key, err)
		return
	}
	session.checkpointed = true
	for number := range session.snapshots {
		if number <= session.prefix {
			delete(session.snapshots, number)
		}
	}
}

func (session *uploadSession) hasCheckpoint() bool {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.checkpointed
}

func (session *uploadSession) completedParts() []storage.CompletedPart {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.sortedParts(len(session.parts))
}

// sortedParts returns parts numbered up to limit in ascending order.
func (session *uploadSession) sortedParts(limit int) []storage.CompletedPart {
	parts := make([]storage.CompletedPart, 0, limit)
	for number, part := range session.parts {
		if number <= limit {
			parts = append(parts, part)
		}
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].Number < parts[j].Number
	})
	return parts
}
