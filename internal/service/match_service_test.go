package service

import (
	"fmt"
	"testing"

	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// 打分函数 - 纯逻辑
// ============================================

func profileOf(mutate func(*matchProfile)) matchProfile {
	p := matchProfile{}
	mutate(&p)
	return p
}

// TestScoreCandidate_PerfectSwap 双向技能互补计40分，类型为skill-swap
func TestScoreCandidate_PerfectSwap(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"guitar"}
		p.wantSkills = []string{"python"}
	})
	other := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"python"}
		p.wantSkills = []string{"guitar"}
	})

	score, reasons, matchType := scoreCandidate(me, other)
	assert.Equal(t, 40, score)
	assert.Equal(t, model.ConnTypeSkillSwap, matchType)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Perfect skill swap: They teach python, you teach guitar", reasons[0])
}

// TestScoreCandidate_OneWayTeach 单向互补计25分，类型为mentor
func TestScoreCandidate_OneWayTeach(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.wantSkills = []string{"python"}
	})
	other := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"python"}
	})

	score, reasons, matchType := scoreCandidate(me, other)
	assert.Equal(t, 25, score)
	assert.Equal(t, model.ConnTypeMentor, matchType)
	require.Len(t, reasons, 1)
	assert.Equal(t, "They can teach you: python", reasons[0])

	// 反方向同理
	score, reasons, matchType = scoreCandidate(other, me)
	assert.Equal(t, 25, score)
	assert.Equal(t, model.ConnTypeMentor, matchType)
	require.Len(t, reasons, 1)
	assert.Equal(t, "You can teach them: python", reasons[0])
}

// TestScoreCandidate_SharedInterests 每个共同兴趣10分，无互换时类型为study-buddy
func TestScoreCandidate_SharedInterests(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.interests = []string{"hiking", "chess", "photography"}
	})
	other := profileOf(func(p *matchProfile) {
		p.interests = []string{"chess", "hiking", "cooking"}
	})

	score, reasons, matchType := scoreCandidate(me, other)
	assert.Equal(t, 20, score)
	assert.Equal(t, model.ConnTypeStudyBuddy, matchType)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Shared interests: hiking, chess", reasons[0])
}

// TestScoreCandidate_SwapBeatsInterestsForType 有互换时类型保持skill-swap
func TestScoreCandidate_SwapBeatsInterestsForType(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"guitar"}
		p.wantSkills = []string{"python"}
		p.interests = []string{"chess"}
	})
	other := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"python"}
		p.wantSkills = []string{"guitar"}
		p.interests = []string{"chess"}
	})

	score, _, matchType := scoreCandidate(me, other)
	assert.Equal(t, 50, score)
	assert.Equal(t, model.ConnTypeSkillSwap, matchType)
}

// TestScoreCandidate_ProfileSkills 对方技能含我想学的，每项8分
func TestScoreCandidate_ProfileSkills(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.wantSkills = []string{"python", "sql"}
	})
	other := profileOf(func(p *matchProfile) {
		p.skills = []string{"python", "sql", "excel"}
	})

	score, reasons, _ := scoreCandidate(me, other)
	assert.Equal(t, 16, score)
	require.Len(t, reasons, 1)
	assert.Equal(t, "Has skills you want: python, sql", reasons[0])
}

// TestScoreCandidate_SameCollegeAndCourse 同学院15分，同课程10分，空值不算命中
func TestScoreCandidate_SameCollegeAndCourse(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.college = "engineering"
		p.course = "computer science"
	})
	other := profileOf(func(p *matchProfile) {
		p.college = "engineering"
		p.course = "computer science"
	})

	score, reasons, matchType := scoreCandidate(me, other)
	assert.Equal(t, 25, score)
	assert.Equal(t, model.ConnTypeGeneral, matchType)
	assert.Contains(t, reasons, "Same college")
	assert.Contains(t, reasons, "Same course")

	// 双方都为空不产生分数
	empty := matchProfile{}
	score, _, _ = scoreCandidate(empty, empty)
	assert.Equal(t, 0, score)
}

// TestScoreCandidate_Cap 总分封顶100
func TestScoreCandidate_Cap(t *testing.T) {
	me := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"guitar"}
		p.wantSkills = []string{"python"}
		p.interests = []string{"a", "b", "c", "d", "e"}
		p.college = "engineering"
		p.course = "cs"
	})
	other := profileOf(func(p *matchProfile) {
		p.offerSkills = []string{"python"}
		p.wantSkills = []string{"guitar"}
		p.skills = []string{"python"}
		p.interests = []string{"a", "b", "c", "d", "e"}
		p.college = "engineering"
		p.course = "cs"
	})

	// 40 + 50 + 8 + 15 + 10 = 123 -> 100
	score, _, _ := scoreCandidate(me, other)
	assert.Equal(t, 100, score)
}

// TestSkillsAlike 双向子串匹配，大小写在画像构建阶段已统一
func TestSkillsAlike(t *testing.T) {
	assert.True(t, skillsAlike("python", "python programming"))
	assert.True(t, skillsAlike("python programming", "python"))
	assert.True(t, skillsAlike("python", "python"))
	assert.False(t, skillsAlike("python", "java"))
	assert.False(t, skillsAlike("", "python"))
	assert.False(t, skillsAlike("python", ""))
}

// TestBuildMatchProfile_Lowercases 画像构建统一转小写，跳过空技能
func TestBuildMatchProfile_Lowercases(t *testing.T) {
	user := &model.User{
		College:   "Engineering",
		Course:    "Computer Science",
		Skills:    model.StringList{"Python", "SQL"},
		Interests: model.StringList{"Chess"},
	}
	swaps := []model.SkillSwap{
		{OfferSkill: "Guitar", WantSkill: "Python"},
		{OfferSkill: "", WantSkill: ""},
	}

	p := buildMatchProfile(user, swaps)
	assert.Equal(t, "engineering", p.college)
	assert.Equal(t, "computer science", p.course)
	assert.Equal(t, []string{"python", "sql"}, p.skills)
	assert.Equal(t, []string{"chess"}, p.interests)
	assert.Equal(t, []string{"guitar"}, p.offerSkills)
	assert.Equal(t, []string{"python"}, p.wantSkills)
}

// ============================================
// FindMatches - 全链路
// ============================================

// TestFindMatches_RanksAndAnnotates 候选按分数降序，零分排除，
// 已连接与在途请求打上标记
func TestFindMatches_RanksAndAnnotates(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	swapRepo := repository.NewSkillSwapRepository(db)
	connRepo := repository.NewConnectionRepository(db, nil)
	matchSvc := NewMatchService(userRepo, swapRepo, connRepo)
	connSvc, _ := newConnectionStack(t, db)
	swapSvc := NewSkillSwapService(swapRepo)

	me := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
		u.Interests = model.StringList{"chess"}
	})
	_, err := swapSvc.Create(me.ID, "Guitar", "Python")
	require.NoError(t, err)

	// 完美互换 + 同学院: 40 + 15 = 55
	best := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
	})
	_, err = swapSvc.Create(best.ID, "Python", "Guitar")
	require.NoError(t, err)

	// 仅共同兴趣: 10
	buddy := seedUser(t, db, func(u *model.User) {
		u.Interests = model.StringList{"chess"}
	})

	// 无任何重叠: 0 分，不出现在结果中
	stranger := seedUser(t, db, func(u *model.User) {
		u.College = "Arts"
	})

	matches, err := matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, best.ID, matches[0].User.ID)
	assert.Equal(t, 55, matches[0].MatchScore)
	assert.Equal(t, model.ConnTypeSkillSwap, matches[0].MatchType)
	require.Len(t, matches[0].SkillSwaps, 1)
	assert.Equal(t, "Python", matches[0].SkillSwaps[0].OfferSkill)

	assert.Equal(t, buddy.ID, matches[1].User.ID)
	assert.Equal(t, 10, matches[1].MatchScore)
	assert.Equal(t, model.ConnTypeStudyBuddy, matches[1].MatchType)

	for _, m := range matches {
		assert.NotEqual(t, stranger.ID, m.User.ID)
		assert.False(t, m.IsConnected)
		assert.False(t, m.HasPendingRequest)
	}

	// 给 best 发申请后应带 pending 标记
	result, err := connSvc.SendRequest(me.ID, best.ID, "", "", "")
	require.NoError(t, err)

	matches, err = matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	assert.True(t, matches[0].HasPendingRequest)
	assert.Equal(t, result.Request.ID, matches[0].PendingRequestID)

	// 对方接受后变为已连接
	require.NoError(t, connSvc.Respond(best.ID, result.Request.ID, true))

	matches, err = matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	assert.True(t, matches[0].IsConnected)
	assert.False(t, matches[0].HasPendingRequest)
}

// TestFindMatches_CapsAtTwenty 候选超过20个时截断
func TestFindMatches_CapsAtTwenty(t *testing.T) {
	db := newTestDB(t)
	matchSvc := NewMatchService(
		repository.NewUserRepository(db),
		repository.NewSkillSwapRepository(db),
		repository.NewConnectionRepository(db, nil),
	)

	me := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
	})
	for i := 0; i < 25; i++ {
		seedUser(t, db, func(u *model.User) {
			u.College = "Engineering"
		})
	}

	matches, err := matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 20)
}

// TestFindMatches_StableOrderOnTies 同分候选维持遇到顺序（ID升序）
func TestFindMatches_StableOrderOnTies(t *testing.T) {
	db := newTestDB(t)
	matchSvc := NewMatchService(
		repository.NewUserRepository(db),
		repository.NewSkillSwapRepository(db),
		repository.NewConnectionRepository(db, nil),
	)

	me := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
	})
	var peers []uint
	for i := 0; i < 5; i++ {
		u := seedUser(t, db, func(u *model.User) {
			u.College = "Engineering"
		})
		peers = append(peers, u.ID)
	}

	matches, err := matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for i, m := range matches {
		assert.Equal(t, peers[i], m.User.ID, fmt.Sprintf("position %d", i))
	}
}

// TestFindMatches_ExcludesDisabled 停用账号不进入候选池
func TestFindMatches_ExcludesDisabled(t *testing.T) {
	db := newTestDB(t)
	matchSvc := NewMatchService(
		repository.NewUserRepository(db),
		repository.NewSkillSwapRepository(db),
		repository.NewConnectionRepository(db, nil),
	)

	me := seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
	})
	seedUser(t, db, func(u *model.User) {
		u.College = "Engineering"
		u.Disabled = true
	})

	matches, err := matchSvc.FindMatches(me.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
