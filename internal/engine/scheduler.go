package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

// RunInput 一次排班运行所需的全部数据快照。
// 快照在加锁之后一次性读出，运行期间不再访问数据库，
// 因此整个批次可以随时重跑。
type RunInput struct {
	Batch           *domain.ScheduleBatch
	Staffs          []*domain.Staff // 本科室职工，引擎内部只保留在职的
	Rosters         []*domain.DoctorRoster
	Requirements    []*domain.StaffingRequirement
	ConfirmedLeaves []*domain.LeaveApplication // 已批准的请假
	Existing        []*domain.ShiftAssignment  // 批次中已有的排班行
	Holidays        []*domain.Holiday
	Profiles        []*domain.FairnessProfile // 上一周期的累计偏差
}

// cell 运行上下文中某个 (职工, 日期) 的排班状态。
// category 记录这次工作排班顶的是哪个分组的槽位：
// 弹性职工可以跨组支援，只按职工自己的分组计数会在重跑时错算缺口
type cell struct {
	date     time.Time
	kind     domain.ShiftKind
	leaveID  *int64
	category string
	existing *domain.ShiftAssignment
	dirty    bool
}

// Run 排班运行上下文：批次运行期间所有阶段共享的显式状态，
// 由本次运行独占，阶段之间严格串行执行。
type Run struct {
	batch       *domain.ScheduleBatch
	staffs      []*domain.Staff // 按 ID 升序，保证结果确定
	staffByID   map[int64]*domain.Staff
	dates       []time.Time // 有出诊表的日期，升序
	rosters     map[string]*domain.DoctorRoster
	resolved    map[string]ResolvedRequirement
	calendar    *Calendar
	leaves      []*domain.LeaveApplication
	leaveTypes  map[int64]domain.LeaveType
	adjustedMin map[int64]int32 // 每个职工总维度的调整后最低排班数
	cells       map[int64]map[string]*cell
	issues      []Issue
}

func NewRun(in *RunInput) *Run {
	r := &Run{
		batch:       in.Batch,
		staffs:      make([]*domain.Staff, 0, len(in.Staffs)),
		staffByID:   make(map[int64]*domain.Staff),
		rosters:     make(map[string]*domain.DoctorRoster, len(in.Rosters)),
		resolved:    make(map[string]ResolvedRequirement, len(in.Rosters)),
		calendar:    NewCalendar(in.Holidays),
		leaveTypes:  make(map[int64]domain.LeaveType, len(in.ConfirmedLeaves)),
		adjustedMin: make(map[int64]int32),
		cells:       make(map[int64]map[string]*cell),
		issues:      []Issue{},
	}

	for _, st := range in.Staffs {
		if !st.IsActive {
			continue
		}
		r.staffs = append(r.staffs, st)
		r.staffByID[st.ID] = st
		r.cells[st.ID] = make(map[string]*cell)
	}
	sort.Slice(r.staffs, func(i, j int) bool { return r.staffs[i].ID < r.staffs[j].ID })

	resolver := NewRequirementResolver(in.Requirements)
	for _, roster := range in.Rosters {
		key := DateKey(roster.Date)
		r.rosters[key] = roster
		r.resolved[key] = resolver.Resolve(roster)
		r.dates = append(r.dates, Midnight(roster.Date))
	}
	sort.Slice(r.dates, func(i, j int) bool { return r.dates[i].Before(r.dates[j]) })

	// 按 (日期, 职工) 排序请假，保证处理顺序确定
	r.leaves = append(r.leaves, in.ConfirmedLeaves...)
	sort.Slice(r.leaves, func(i, j int) bool {
		if !r.leaves[i].Date.Equal(r.leaves[j].Date) {
			return r.leaves[i].Date.Before(r.leaves[j].Date)
		}
		return r.leaves[i].StaffID < r.leaves[j].StaffID
	})
	for _, lv := range r.leaves {
		r.leaveTypes[lv.ID] = lv.Type
	}

	// 已有排班行装入上下文，dirty 为 false；
	// 一致的批次重跑时所有阶段都不会再触碰它们
	for _, a := range in.Existing {
		if _, exists := r.staffByID[a.StaffID]; !exists {
			continue
		}
		r.cells[a.StaffID][DateKey(a.Date)] = &cell{
			date:     Midnight(a.Date),
			kind:     a.Kind,
			leaveID:  a.LeaveID,
			existing: a,
		}
	}
	r.attributeExistingFills()

	// 计算每个职工总维度的调整后最低排班数，作为阶段一的优先级依据
	calc := NewFairnessCalculator(resolver, r.calendar)
	categoryCount := make(map[string]int)
	for _, st := range r.staffs {
		categoryCount[st.Category]++
	}
	baselines := make(map[string]Deviations)
	for category, count := range categoryCount {
		baselines[category] = calc.CategoryBaselines(in.Rosters, category, count)
	}
	previous := make(map[int64]Deviations)
	for _, p := range in.Profiles {
		previous[p.StaffID] = DeviationsFromProfile(p)
	}
	for _, st := range r.staffs {
		prev := 0.0
		if d, exists := previous[st.ID]; exists {
			prev = d[DimensionTotal]
		}
		r.adjustedMin[st.ID] = AdjustedMinimum(baselines[st.Category][DimensionTotal], prev)
	}

	return r
}

// attributeExistingFills 数据库中的排班行没有记录弹性职工顶的是哪个分组的槽位，
// 重跑时按固定顺序重新归属：每人先计入自己分组的需求，
// 多出来的弹性职工再按分组名顺序填其他分组的缺口
func (r *Run) attributeExistingFills() {
	for _, date := range r.dates {
		key := DateKey(date)
		resolved := r.resolved[key]
		if !resolved.Known {
			continue
		}

		working := make([]*domain.Staff, 0)
		for _, st := range r.staffs {
			c := r.cells[st.ID][key]
			if c != nil && (c.kind == domain.ShiftWorkDay || c.kind == domain.ShiftWorkNight) {
				working = append(working, st)
			}
		}
		if len(working) == 0 {
			continue
		}

		categories := make([]string, 0, len(resolved.Categories))
		for name := range resolved.Categories {
			categories = append(categories, name)
		}
		sort.Strings(categories)

		// 非弹性职工只能顶自己分组的槽位，先归属他们，
		// 弹性职工留到后面去填哪个分组都行
		filled := make(map[string]int32)
		for _, flexible := range []bool{false, true} {
			for _, st := range working {
				if st.IsFlexible != flexible {
					continue
				}
				req, exists := resolved.Categories[st.Category]
				if exists && filled[st.Category] < req.Count {
					r.cells[st.ID][key].category = st.Category
					filled[st.Category]++
				}
			}
		}

		for _, st := range working {
			c := r.cells[st.ID][key]
			if c.category != "" || !st.IsFlexible {
				continue
			}
			for _, category := range categories {
				if category == st.Category {
					continue
				}
				if filled[category] < resolved.Categories[category].Count {
					c.category = category
					filled[category]++
					break
				}
			}
		}

		// 超出需求的在岗职工仍计入自己的分组
		for _, st := range working {
			if c := r.cells[st.ID][key]; c.category == "" {
				c.category = st.Category
			}
		}
	}
}

// Execute 依次执行四个阶段。每个阶段都依赖前一阶段写入上下文的状态，
// 因此批次内部不允许并行。
func (r *Run) Execute() *RunResult {
	r.phaseInitialFill()
	r.phaseWeeklyRebalance()
	r.phaseReconcileLeaves()
	r.phaseEnsureCoverage()

	result := &RunResult{
		Success: true,
		Issues:  r.issues,
	}

	for _, st := range r.staffs {
		keys := make([]string, 0, len(r.cells[st.ID]))
		for key := range r.cells[st.ID] {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			c := r.cells[st.ID][key]
			if c.kind == domain.ShiftWorkDay || c.kind == domain.ShiftWorkNight {
				result.AssignedCount++
			}
			if !c.dirty {
				continue
			}

			assignment := &domain.ShiftAssignment{
				BatchID: r.batch.ID,
				StaffID: st.ID,
				Date:    c.date,
				Kind:    c.kind,
				LeaveID: c.leaveID,
			}
			if c.existing != nil {
				assignment.ID = c.existing.ID
				assignment.Version = c.existing.Version
			}
			result.Mutations = append(result.Mutations, assignment)
		}
	}

	return result
}

/**********************************************
 * 阶段一：初始填充
 **********************************************/

func (r *Run) phaseInitialFill() {
	for _, date := range r.dates {
		key := DateKey(date)
		resolved := r.resolved[key]

		if !resolved.Known {
			r.addIssue(Issue{
				Code:       IssueConfigurationGap,
				Severity:   SeverityWarning,
				Date:       key,
				Message:    "该日期的医生出诊组合没有匹配的人力配置，已跳过排班",
				Suggestion: "请在人力配置中补充该医生组合后重新运行排班",
			})
			continue
		}

		kind := r.workKind(key)

		// 分组按名称排序，保证填充顺序确定
		categories := make([]string, 0, len(resolved.Categories))
		for name := range resolved.Categories {
			categories = append(categories, name)
		}
		sort.Strings(categories)

		for _, category := range categories {
			required := resolved.Categories[category].Count
			assigned := r.countWorkingByCategory(key, category)

			for assigned < required {
				st := r.pickMostOwed(date, category)
				if st == nil {
					r.addIssue(Issue{
						Code:     IssueConstraintUnsatisfiable,
						Severity: SeverityWarning,
						Date:     key,
						Message: fmt.Sprintf("分组 %s 当天需要 %d 人，只排到 %d 人",
							category, required, assigned),
						Suggestion: "可考虑调整人力配置或安排其他分组支援",
					})
					break
				}
				r.setCell(st.ID, date, kind, nil)
				r.cells[st.ID][key].category = category
				assigned++
			}
		}

		// 没有被选中的职工当天记为休息
		for _, st := range r.staffs {
			if r.cells[st.ID][key] == nil {
				r.setCell(st.ID, date, domain.ShiftOff, nil)
			}
		}
	}
}

// pickMostOwed 在符合条件的职工中选出最欠班的一个：
// 按 调整后最低排班数 − 已排工作天数 降序，相同时按职工 ID 升序
func (r *Run) pickMostOwed(date time.Time, category string) *domain.Staff {
	key := DateKey(date)

	var best *domain.Staff
	var bestOwed int32

	for _, st := range r.staffs {
		if st.Category != category && !st.IsFlexible {
			continue
		}
		if r.cells[st.ID][key] != nil {
			continue
		}
		if r.weekWorkdayCount(st.ID, date) >= int(st.WeeklyTarget) {
			continue
		}

		owed := r.adjustedMin[st.ID] - int32(r.totalWorkCount(st.ID))
		if best == nil || owed > bestOwed {
			best = st
			bestOwed = owed
		}
	}

	return best
}

/**********************************************
 * 阶段二：每周保底天数再平衡
 **********************************************/

func (r *Run) phaseWeeklyRebalance() {
	for _, st := range r.staffs {
		for _, week := range r.weeks() {
			for r.weekWorkdayCount(st.ID, week) < int(st.WeeklyTarget) {
				date, ok := r.pickOffDayToFlip(st.ID, week)
				if !ok {
					shortfall := int(st.WeeklyTarget) - r.weekWorkdayCount(st.ID, week)
					staffID := st.ID
					r.addIssue(Issue{
						Code:     IssueConstraintUnsatisfiable,
						Severity: SeverityWarning,
						StaffID:  &staffID,
						Date:     WeekKey(week),
						Message: fmt.Sprintf("%s 本周还差 %d 天才能达到每周 %d 天的保底",
							st.FullName, shortfall, st.WeeklyTarget),
						Suggestion: "可考虑在相邻周补班或调整该职工的每周目标",
					})
					break
				}
				r.setCell(st.ID, date, r.workKind(DateKey(date)), nil)
			}
		}
	}
}

// pickOffDayToFlip 在某周内选出可以从休息翻转为工作的日期：
// 只考虑有可解析出诊表、且当天休息人数高于下限（至少还有一名其他职工休息）的日期，
// 在其中选休息人数最多的一天；并列时取最早的日期。
// 旧实现此处用过未设种子的随机数，这里固定为最早日期，保证结果可复现。
func (r *Run) pickOffDayToFlip(staffID int64, week time.Time) (time.Time, bool) {
	var best time.Time
	bestCount := -1

	for _, date := range r.dates {
		if !SameWeek(date, week) {
			continue
		}
		key := DateKey(date)

		c := r.cells[staffID][key]
		if c == nil || c.kind != domain.ShiftOff || c.leaveID != nil {
			continue
		}
		if !r.resolved[key].Known {
			continue
		}

		offCount := r.offHeadcount(key)
		if offCount <= 1 {
			// 当天只剩这一个人休息，翻转会把休息池抽干
			continue
		}

		if offCount > bestCount {
			best = date
			bestCount = offCount
		}
	}

	if bestCount < 0 {
		return time.Time{}, false
	}
	return best, true
}

/**********************************************
 * 阶段三：请假对账
 **********************************************/

func (r *Run) phaseReconcileLeaves() {
	for _, lv := range r.leaves {
		if lv.Date.Before(r.batch.StartDate) || lv.Date.After(r.batch.EndDate) {
			continue
		}
		if _, exists := r.staffByID[lv.StaffID]; !exists {
			continue
		}

		date := Midnight(lv.Date)
		key := DateKey(date)
		leaveID := lv.ID
		c := r.cells[lv.StaffID][key]

		switch {
		case c == nil:
			// 还没有排班行，直接创建关联请假的休息行
			r.setCell(lv.StaffID, date, domain.ShiftOff, &leaveID)

		case c.kind == domain.ShiftOff:
			if c.leaveID == nil {
				r.setCell(lv.StaffID, date, domain.ShiftOff, &leaveID)
			} else if *c.leaveID != lv.ID {
				staffID := lv.StaffID
				r.addIssue(Issue{
					Code:       IssueLeaveConflict,
					Severity:   SeverityWarning,
					StaffID:    &staffID,
					Date:       key,
					Message:    "当天的休息行已关联另一条请假申请，无法自动处理",
					Suggestion: "请人工核对这两条请假申请",
				})
			}

		default:
			// 工作排班与已批准请假冲突：转为休息并关联请假
			r.setCell(lv.StaffID, date, domain.ShiftOff, &leaveID)

			// 年假计入每周工作天数，普通休假不计；
			// 如果排班阶段已经依赖这个班次，转换后会跌破保底，需要上报
			if lv.Type != domain.LeaveTypeAnnual {
				st := r.staffByID[lv.StaffID]
				if r.weekWorkdayCount(st.ID, date) < int(st.WeeklyTarget) {
					staffID := st.ID
					r.addIssue(Issue{
						Code:     IssueLeaveConflict,
						Severity: SeverityWarning,
						StaffID:  &staffID,
						Date:     key,
						Message: fmt.Sprintf("%s 当天的工作排班已被批准的请假替换，本周天数跌破保底",
							st.FullName),
						Suggestion: "已自动转为休息，请在本周其余日期补班",
					})
				}
			}
		}
	}
}

/**********************************************
 * 阶段四：行完整性兜底
 **********************************************/

// phaseEnsureCoverage 保证批次范围内每个在职职工在每个出诊日都恰有一行排班
func (r *Run) phaseEnsureCoverage() {
	for _, date := range r.dates {
		key := DateKey(date)
		for _, st := range r.staffs {
			if r.cells[st.ID][key] == nil {
				r.setCell(st.ID, date, domain.ShiftOff, nil)
			}
		}
	}
}

/**********************************************
 * 上下文工具
 **********************************************/

func (r *Run) addIssue(issue Issue) {
	r.issues = append(r.issues, issue)
}

// setCell 写入排班状态，内容没有变化时不会标脏
func (r *Run) setCell(staffID int64, date time.Time, kind domain.ShiftKind, leaveID *int64) {
	key := DateKey(date)
	c := r.cells[staffID][key]
	if c == nil {
		r.cells[staffID][key] = &cell{
			date:    Midnight(date),
			kind:    kind,
			leaveID: leaveID,
			dirty:   true,
		}
		return
	}
	if c.kind == kind && equalLeaveID(c.leaveID, leaveID) {
		return
	}
	c.kind = kind
	c.leaveID = leaveID
	c.dirty = true
}

func equalLeaveID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// workKind 当天的工作班种由出诊表的夜诊标记决定
func (r *Run) workKind(key string) domain.ShiftKind {
	if roster, exists := r.rosters[key]; exists && roster.HasNightShift {
		return domain.ShiftWorkNight
	}
	return domain.ShiftWorkDay
}

// weeks 批次覆盖的所有周的周日，升序
func (r *Run) weeks() []time.Time {
	seen := make(map[string]bool)
	weeks := make([]time.Time, 0)
	for _, date := range r.dates {
		start := WeekStart(date)
		key := DateKey(start)
		if !seen[key] {
			seen[key] = true
			weeks = append(weeks, start)
		}
	}
	return weeks
}

// weekWorkdayCount 某职工在某周的工作天数：
// 工作排班加上年假（年假计入每周上限），普通休假不算
func (r *Run) weekWorkdayCount(staffID int64, anyDayInWeek time.Time) int {
	count := 0
	for _, c := range r.cells[staffID] {
		if !SameWeek(c.date, anyDayInWeek) {
			continue
		}
		switch {
		case c.kind == domain.ShiftWorkDay || c.kind == domain.ShiftWorkNight:
			count++
		case c.leaveID != nil && r.leaveTypes[*c.leaveID] == domain.LeaveTypeAnnual:
			count++
		}
	}
	return count
}

// totalWorkCount 某职工在整个批次内已排的工作天数
func (r *Run) totalWorkCount(staffID int64) int {
	count := 0
	for _, c := range r.cells[staffID] {
		if c.kind == domain.ShiftWorkDay || c.kind == domain.ShiftWorkNight {
			count++
		}
	}
	return count
}

// countWorkingByCategory 当天已经顶在某分组槽位上的工作人数，
// 按排班行归属的分组计数而不是职工自己的分组
func (r *Run) countWorkingByCategory(key string, category string) int32 {
	count := int32(0)
	for _, st := range r.staffs {
		c := r.cells[st.ID][key]
		if c == nil || c.category != category {
			continue
		}
		if c.kind == domain.ShiftWorkDay || c.kind == domain.ShiftWorkNight {
			count++
		}
	}
	return count
}

// offHeadcount 当天纯休息（未关联请假）的人数
func (r *Run) offHeadcount(key string) int {
	count := 0
	for _, st := range r.staffs {
		c := r.cells[st.ID][key]
		if c != nil && c.kind == domain.ShiftOff && c.leaveID == nil {
			count++
		}
	}
	return count
}
