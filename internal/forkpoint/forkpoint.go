// Package forkpoint finds where a local branch left an upstream branch
// without asking version control for a merge base. The upstream branch may
// be a rewritten mirror on which merge-base semantics do not hold.
package forkpoint

import "github.com/rios0rios0/registrypatcher/internal/domain/entities"

// Find returns the fork point between the local and the upstream history.
//
// local lists the commits that only the local branch has and upstream lists
// the upstream branch, both newest first. Two scans are tried in order:
//
//  1. upstream, newest to oldest: the first commit with a parent in the local
//     history is returned (upstream has merged local work);
//  2. local, oldest to newest: the first parent found in the upstream history
//     is returned (the branch was cut from upstream).
//
// The boolean is false when neither scan matches.
func Find(local, upstream []entities.CommitRef) (entities.CommitRef, bool) {
	localSet := make(map[string]struct{}, len(local))
	for _, commit := range local {
		localSet[commit.Hash] = struct{}{}
	}
	upstreamByHash := make(map[string]entities.CommitRef, len(upstream))
	for _, commit := range upstream {
		upstreamByHash[commit.Hash] = commit
	}

	for _, commit := range upstream {
		for _, parent := range commit.Parents {
			if _, ok := localSet[parent]; ok {
				return commit, true
			}
		}
	}

	for i := len(local) - 1; i >= 0; i-- {
		for _, parent := range local[i].Parents {
			if found, ok := upstreamByHash[parent]; ok {
				return found, true
			}
		}
	}

	return entities.CommitRef{}, false
}
