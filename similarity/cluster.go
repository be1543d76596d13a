package similarity

import "github.com/replylabs/chorus"

// ClusterThreshold is the minimum Jaccard similarity for a response to join
// an existing cluster instead of starting its own.
const ClusterThreshold = 0.7

// Cluster groups mutually-similar candidate responses. The representative is
// the text of the first response assigned to the cluster; later members are
// compared against it, not against each other.
type Cluster struct {
	Representative string
	Members        []chorus.CandidateResponse
}

// ClusterResponses greedily partitions responses into clusters of similar
// text. Responses are visited in input order; each joins the first cluster
// whose representative it exceeds [ClusterThreshold] against, otherwise it
// starts a new cluster.
//
// This is O(n·k) greedy clustering, not an optimal partition. The outcome
// depends on input order, which the coordinator preserves from the request's
// model list so that identical rounds cluster identically.
func ClusterResponses(responses []chorus.CandidateResponse) []Cluster {
	var clusters []Cluster

	for _, resp := range responses {
		joined := false
		for i := range clusters {
			if Jaccard(resp.Text, clusters[i].Representative) > ClusterThreshold {
				clusters[i].Members = append(clusters[i].Members, resp)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{
				Representative: resp.Text,
				Members:        []chorus.CandidateResponse{resp},
			})
		}
	}

	return clusters
}

// Agreement returns the mean pairwise Jaccard similarity across all response
// pairs, scaled to 0-100. Fewer than two responses cannot disagree, so the
// result is 100.
func Agreement(responses []chorus.CandidateResponse) float64 {
	if len(responses) < 2 {
		return 100.0
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			total += Jaccard(responses[i].Text, responses[j].Text)
			pairs++
		}
	}

	return total / float64(pairs) * 100.0
}

// MeanPairwise is Agreement over bare strings, used by the confidence
// evaluator's model-agreement factor where only response texts are at hand.
func MeanPairwise(texts []string) float64 {
	if len(texts) < 2 {
		return 100.0
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			total += Jaccard(texts[i], texts[j])
			pairs++
		}
	}

	return total / float64(pairs) * 100.0
}
