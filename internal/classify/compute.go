package classify

import (
	"strings"

	"github.com/ppiankov/azspectre/internal/resource"
)

const (
	diskStateUnattached = "Unattached"
	diskStateActiveSAS  = "ActiveSAS"
)

// excludedDiskTags mark disks owned by AKS volumes, Site Recovery or backup
// vaults. They are matched against tag keys and values.
var excludedDiskTags = []string{
	"kubernetes.io-created-for-pvc",
	"asr-replicadisk",
	"asrseeddisk",
	"rsvaultbackup",
}

func computeClassifiers() []Classifier {
	return []Classifier{
		Func{resource.TypeDisks, diskOrphaned},
		Func{resource.TypeAvailabilitySets, availabilitySetOrphaned},
	}
}

// isASRDisk reports whether a disk name follows Site Recovery naming.
func isASRDisk(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, "-asrreplica") ||
		strings.HasPrefix(n, "ms-asr-") ||
		strings.HasPrefix(n, "asrseeddisk-")
}

func hasExcludedDiskTag(tags map[string]string) bool {
	for k, v := range tags {
		k, v = strings.ToLower(k), strings.ToLower(v)
		for _, marker := range excludedDiskTags {
			if strings.Contains(k, marker) || strings.Contains(v, marker) {
				return true
			}
		}
	}
	return false
}

func diskOrphaned(r resource.Record) (bool, bool) {
	if isASRDisk(r.Name) || hasExcludedDiskTag(r.Tags) {
		return false, true
	}
	if r.DiskState == nil && r.ManagedBy == nil {
		return false, false
	}

	state := ""
	if r.DiskState != nil {
		state = *r.DiskState
	}
	if strings.EqualFold(state, diskStateActiveSAS) {
		return false, true
	}

	noOwner := r.ManagedBy == nil || *r.ManagedBy == ""
	return noOwner || strings.EqualFold(state, diskStateUnattached), true
}

func availabilitySetOrphaned(r resource.Record) (bool, bool) {
	if strings.HasSuffix(strings.ToLower(r.Name), "-asr") {
		return false, true
	}
	return allZero(r.VirtualMachinesCount)
}
