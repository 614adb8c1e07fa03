package credentials_test

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitupdater/internal/credentials"
)

const (
	testRequestKeyConstant  = "host:user"
	testSecretConstant      = "s3cr3t"
	testSegmentNameConstant = "gitupdater-test-credentials"
)

func testSegmentOptions(testInstance *testing.T) credentials.SegmentOptions {
	testInstance.Helper()
	return credentials.SegmentOptions{Name: testSegmentNameConstant, Directory: testInstance.TempDir()}
}

func openTestSegment(testInstance *testing.T, options credentials.SegmentOptions) *credentials.Segment {
	testInstance.Helper()
	segment, openError := credentials.Open(options)
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, segment.Close())
	})
	return segment
}

func TestSegmentRoundTripAcrossHandles(testInstance *testing.T) {
	options := testSegmentOptions(testInstance)
	ownerSegment := openTestSegment(testInstance, options)
	require.True(testInstance, ownerSegment.Owner())

	ownerStore := credentials.NewSegmentStore(ownerSegment)
	require.NoError(testInstance, ownerStore.Put(testRequestKeyConstant, testSecretConstant))

	secret, found, getError := ownerStore.Get(testRequestKeyConstant)
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, testSecretConstant, secret)

	attachedSegment, attachError := credentials.Attach(options)
	require.NoError(testInstance, attachError)
	require.False(testInstance, attachedSegment.Owner())
	attachedStore := credentials.NewSegmentStore(attachedSegment)

	secret, found, getError = attachedStore.Get(testRequestKeyConstant)
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, testSecretConstant, secret)

	require.NoError(testInstance, attachedStore.Put("other:user", "second"))
	secret, found, getError = ownerStore.Get("other:user")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, "second", secret)

	require.NoError(testInstance, attachedSegment.Close())
}

func TestSegmentUnknownKeyIsMiss(testInstance *testing.T) {
	store := credentials.NewSegmentStore(openTestSegment(testInstance, testSegmentOptions(testInstance)))

	secret, found, getError := store.Get("unknown")
	require.NoError(testInstance, getError)
	require.False(testInstance, found)
	require.Empty(testInstance, secret)

	require.NoError(testInstance, store.Put("empty", ""))
	secret, found, getError = store.Get("empty")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Empty(testInstance, secret)
}

func TestSegmentLifecycle(testInstance *testing.T) {
	options := testSegmentOptions(testInstance)

	_, attachError := credentials.Attach(options)
	require.ErrorIs(testInstance, attachError, credentials.ErrSegmentNotFound)

	ownerSegment, openError := credentials.Open(options)
	require.NoError(testInstance, openError)

	attachedSegment, attachError := credentials.Attach(options)
	require.NoError(testInstance, attachError)
	require.NoError(testInstance, attachedSegment.Close())
	require.FileExists(testInstance, ownerSegment.Path())

	_, loadError := attachedSegment.Load()
	require.ErrorIs(testInstance, loadError, credentials.ErrSegmentClosed)

	require.NoError(testInstance, ownerSegment.Close())
	require.NoFileExists(testInstance, ownerSegment.Path())
	require.NoFileExists(testInstance, ownerSegment.Path()+".lock")
	require.NoError(testInstance, ownerSegment.Close())
}

func TestSegmentOpenResetsExistingSnapshot(testInstance *testing.T) {
	options := testSegmentOptions(testInstance)
	firstSegment := openTestSegment(testInstance, options)
	require.NoError(testInstance, credentials.NewSegmentStore(firstSegment).Put(testRequestKeyConstant, testSecretConstant))

	secondSegment, openError := credentials.Open(options)
	require.NoError(testInstance, openError)
	snapshot, loadError := secondSegment.Load()
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, snapshot)
}

func TestSegmentEnforcesCapacity(testInstance *testing.T) {
	options := testSegmentOptions(testInstance)
	options.Size = 96
	store := credentials.NewSegmentStore(openTestSegment(testInstance, options))

	require.NoError(testInstance, store.Put("a", "b"))
	putError := store.Put(testRequestKeyConstant, strings.Repeat("x", 128))
	require.ErrorIs(testInstance, putError, credentials.ErrSegmentCapacityExceeded)

	secret, found, getError := store.Get("a")
	require.NoError(testInstance, getError)
	require.True(testInstance, found)
	require.Equal(testInstance, "b", secret)

	_, found, getError = store.Get(testRequestKeyConstant)
	require.NoError(testInstance, getError)
	require.False(testInstance, found)
}

func TestSegmentRecordFormat(testInstance *testing.T) {
	segment := openTestSegment(testInstance, testSegmentOptions(testInstance))
	store := credentials.NewSegmentStore(segment)
	require.NoError(testInstance, store.Put("zeta", "2"))
	require.NoError(testInstance, store.Put("alpha", "1"))

	encoded, readError := os.ReadFile(segment.Path())
	require.NoError(testInstance, readError)
	content := string(encoded)
	require.True(testInstance, strings.HasPrefix(content, "version: 1\n"))
	require.Less(testInstance, strings.Index(content, "alpha"), strings.Index(content, "zeta"))
}

func TestSegmentRejectsUnknownRecordVersion(testInstance *testing.T) {
	segment := openTestSegment(testInstance, testSegmentOptions(testInstance))
	require.NoError(testInstance, os.WriteFile(segment.Path(), []byte("version: 2\ncredentials: []\n"), 0o600))

	_, loadError := segment.Load()
	require.ErrorIs(testInstance, loadError, credentials.ErrUnsupportedRecordVersion)

	putError := credentials.NewSegmentStore(segment).Put(testRequestKeyConstant, testSecretConstant)
	require.ErrorIs(testInstance, putError, credentials.ErrUnsupportedRecordVersion)
}

func TestRunSegmentNameIsScopedToUserAndProcess(testInstance *testing.T) {
	segmentName := credentials.RunSegmentName(4242)
	require.True(testInstance, strings.HasPrefix(segmentName, credentials.DefaultSegmentName+"-"), segmentName)
	require.True(testInstance, strings.HasSuffix(segmentName, "-4242"), segmentName)
	if userID := os.Getuid(); userID >= 0 {
		require.Equal(testInstance, fmt.Sprintf("%s-%d-4242", credentials.DefaultSegmentName, userID), segmentName)
	}
	require.NotEqual(testInstance, segmentName, credentials.RunSegmentName(4243))
}

func TestSegmentDefaultsToRunScopedName(testInstance *testing.T) {
	segmentDirectory := testInstance.TempDir()
	segment := openTestSegment(testInstance, credentials.SegmentOptions{Directory: segmentDirectory})

	require.Equal(testInstance, credentials.RunSegmentName(os.Getpid()), segment.Name())
	require.Equal(testInstance, segmentDirectory, segment.Directory())

	otherRun := openTestSegment(testInstance, credentials.SegmentOptions{Name: credentials.RunSegmentName(os.Getpid() + 1), Directory: segmentDirectory})
	require.NotEqual(testInstance, segment.Path(), otherRun.Path())

	attachedSegment, attachError := credentials.Attach(credentials.SegmentOptions{Name: segment.Name(), Directory: segment.Directory()})
	require.NoError(testInstance, attachError)
	require.Equal(testInstance, segment.Path(), attachedSegment.Path())
}

func TestSegmentRejectsInvalidName(testInstance *testing.T) {
	_, openError := credentials.Open(credentials.SegmentOptions{Name: "../escape", Directory: testInstance.TempDir()})
	require.ErrorIs(testInstance, openError, credentials.ErrInvalidSegmentName)
}

func TestSegmentSerializesConcurrentWriters(testInstance *testing.T) {
	options := testSegmentOptions(testInstance)
	ownerSegment := openTestSegment(testInstance, options)

	const writerCount = 8
	var waitGroup sync.WaitGroup
	writeErrors := make(chan error, writerCount)
	for writerIndex := 0; writerIndex < writerCount; writerIndex++ {
		waitGroup.Add(1)
		go func(writerIndex int) {
			defer waitGroup.Done()
			attachedSegment, attachError := credentials.Attach(options)
			if attachError != nil {
				writeErrors <- attachError
				return
			}
			defer attachedSegment.Close()
			writeErrors <- credentials.NewSegmentStore(attachedSegment).Put(fmt.Sprintf("request-%d", writerIndex), "secret")
		}(writerIndex)
	}
	waitGroup.Wait()
	close(writeErrors)
	for writeError := range writeErrors {
		require.NoError(testInstance, writeError)
	}

	snapshot, loadError := ownerSegment.Load()
	require.NoError(testInstance, loadError)
	require.Len(testInstance, snapshot, writerCount)
}
