package service

import (
	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/pkg/monitoring"
	"fmt"
	"sort"
	"strings"
)

const maxMatches = 20

// 匹配打分权重
const (
	scorePerfectSwap    = 40
	scoreOneWayTeach    = 25
	scorePerInterest    = 10
	scorePerWantedSkill = 8
	scoreSameCollege    = 15
	scoreSameCourse     = 10
	scoreCap            = 100
)

// MatchCandidate 匹配结果中的一个候选人
type MatchCandidate struct {
	User              model.PublicProfile `json:"user"`
	MatchScore        int                 `json:"matchScore"`
	MatchType         string              `json:"matchType"`
	Reasons           []string            `json:"reasons"`
	SkillSwaps        []model.SkillSwap   `json:"skillSwaps"`
	IsConnected       bool                `json:"isConnected"`
	HasPendingRequest bool                `json:"hasPendingRequest"`
	PendingRequestID  string              `json:"pendingRequestId,omitempty"`
}

// matchProfile 打分所需的一侧输入，全部预先转小写
type matchProfile struct {
	offerSkills []string
	wantSkills  []string
	skills      []string
	interests   []string
	college     string
	course      string
}

type MatchService struct {
	UserRepo *repository.UserRepository
	SwapRepo *repository.SkillSwapRepository
	ConnRepo *repository.ConnectionRepository
}

func NewMatchService(userRepo *repository.UserRepository, swapRepo *repository.SkillSwapRepository, connRepo *repository.ConnectionRepository) *MatchService {
	return &MatchService{
		UserRepo: userRepo,
		SwapRepo: swapRepo,
		ConnRepo: connRepo,
	}
}

// FindMatches 给当前用户打分排序所有其他用户，返回前 20 个正分候选
func (s *MatchService) FindMatches(userID uint) ([]MatchCandidate, error) {
	me, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	mySwaps, err := s.SwapRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	others, err := s.UserRepo.FindAllExcluding(userID)
	if err != nil {
		return nil, err
	}
	otherIDs := make([]uint, 0, len(others))
	for i := range others {
		otherIDs = append(otherIDs, others[i].ID)
	}
	allSwaps, err := s.SwapRepo.ListByUsers(otherIDs)
	if err != nil {
		return nil, err
	}
	swapsByUser := make(map[uint][]model.SkillSwap, len(others))
	for _, swap := range allSwaps {
		swapsByUser[swap.UserID] = append(swapsByUser[swap.UserID], swap)
	}

	connectedIDs, err := s.ConnRepo.ConnectedIDsCached(userID)
	if err != nil {
		return nil, err
	}
	connected := make(map[uint]bool, len(connectedIDs))
	for _, id := range connectedIDs {
		connected[id] = true
	}

	pendingReqs, err := s.ConnRepo.PendingTouching(userID)
	if err != nil {
		return nil, err
	}
	pendingWith := make(map[uint]string, len(pendingReqs))
	for i := range pendingReqs {
		other := pendingReqs[i].FromUserID
		if other == userID {
			other = pendingReqs[i].ToUserID
		}
		pendingWith[other] = pendingReqs[i].ID
	}

	myProfile := buildMatchProfile(me, mySwaps)

	matches := make([]MatchCandidate, 0, len(others))
	for i := range others {
		other := &others[i]
		otherSwaps := swapsByUser[other.ID]

		score, reasons, matchType := scoreCandidate(myProfile, buildMatchProfile(other, otherSwaps))
		if score <= 0 {
			continue
		}
		monitoring.MatchScoreHistogram.Observe(float64(score))

		available := make([]model.SkillSwap, 0, len(otherSwaps))
		for _, swap := range otherSwaps {
			if swap.Status == model.SwapAvailable {
				available = append(available, swap)
			}
		}

		pendingID, hasPending := pendingWith[other.ID]
		matches = append(matches, MatchCandidate{
			User:              other.Public(),
			MatchScore:        score,
			MatchType:         matchType,
			Reasons:           reasons,
			SkillSwaps:        available,
			IsConnected:       connected[other.ID],
			HasPendingRequest: hasPending,
			PendingRequestID:  pendingID,
		})
	}

	// 分数降序，同分保持遇到顺序
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches, nil
}

func buildMatchProfile(u *model.User, swaps []model.SkillSwap) matchProfile {
	p := matchProfile{
		college:   strings.ToLower(u.College),
		course:    strings.ToLower(u.Course),
		skills:    lowerAll(u.Skills),
		interests: lowerAll(u.Interests),
	}
	for _, swap := range swaps {
		if swap.OfferSkill != "" {
			p.offerSkills = append(p.offerSkills, strings.ToLower(swap.OfferSkill))
		}
		if swap.WantSkill != "" {
			p.wantSkills = append(p.wantSkills, strings.ToLower(swap.WantSkill))
		}
	}
	return p
}

// scoreCandidate 纯函数：双方画像 -> (分数, 理由, 匹配类型)。
// 技能比较用双向子串包含，容忍 "Python" vs "Python Programming" 这类写法差异。
func scoreCandidate(me, other matchProfile) (int, []string, string) {
	score := 0
	reasons := []string{}
	matchType := model.ConnTypeGeneral

	theyOfferWhatIWant := filterFuzzyOverlap(me.wantSkills, other.offerSkills)
	iOfferWhatTheyWant := filterFuzzyOverlap(me.offerSkills, other.wantSkills)

	switch {
	case len(theyOfferWhatIWant) > 0 && len(iOfferWhatTheyWant) > 0:
		score += scorePerfectSwap
		reasons = append(reasons, fmt.Sprintf("Perfect skill swap: They teach %s, you teach %s",
			strings.Join(theyOfferWhatIWant, ", "), strings.Join(iOfferWhatTheyWant, ", ")))
		matchType = model.ConnTypeSkillSwap
	case len(theyOfferWhatIWant) > 0:
		score += scoreOneWayTeach
		reasons = append(reasons, "They can teach you: "+strings.Join(theyOfferWhatIWant, ", "))
		matchType = model.ConnTypeMentor
	case len(iOfferWhatTheyWant) > 0:
		score += scoreOneWayTeach
		reasons = append(reasons, "You can teach them: "+strings.Join(iOfferWhatTheyWant, ", "))
		matchType = model.ConnTypeMentor
	}

	shared := sharedExact(me.interests, other.interests)
	if len(shared) > 0 {
		score += len(shared) * scorePerInterest
		reasons = append(reasons, "Shared interests: "+strings.Join(shared, ", "))
		if matchType == model.ConnTypeGeneral {
			matchType = model.ConnTypeStudyBuddy
		}
	}

	complementary := filterFuzzyOverlap(other.skills, me.wantSkills)
	if len(complementary) > 0 {
		score += len(complementary) * scorePerWantedSkill
		reasons = append(reasons, "Has skills you want: "+strings.Join(complementary, ", "))
	}

	if me.college != "" && me.college == other.college {
		score += scoreSameCollege
		reasons = append(reasons, "Same college")
	}
	if me.course != "" && me.course == other.course {
		score += scoreSameCourse
		reasons = append(reasons, "Same course")
	}

	if score > scoreCap {
		score = scoreCap
	}
	return score, reasons, matchType
}

// filterFuzzyOverlap 保留 items 中与 pool 任一元素双向子串匹配的项
func filterFuzzyOverlap(items, pool []string) []string {
	var out []string
	for _, item := range items {
		for _, p := range pool {
			if skillsAlike(item, p) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// skillsAlike 双向子串匹配。短字符串会产生误报（"c" 命中 "c++"），
// 属于沿用的启发式行为。
func skillsAlike(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func sharedExact(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	var out []string
	for _, s := range a {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
