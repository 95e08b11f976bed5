package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/config"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/repository"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/seed"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var department string
	var categoriesFlag string
	var startDate string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机职工, 2: 插入随机出诊表, 3: 插入预置人力配置和节假日, 4: 插入随机请假申请)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&department, "department", "内科", "科室名称")
	flag.StringVar(&categoriesFlag, "categories", "组长,组员", "分组列表，用逗号分隔")
	flag.StringVar(&startDate, "start-date", "", "出诊表的起始日期，格式 2006-01-02，默认为今天")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的职工数量")
			return
		}

		categories := strings.Split(categoriesFlag, ",")

		cnt := n
		for i := 0; i < n; i++ {
			staff, err := utils.GenerateRandomStaff(cfg.Seed.Staff.Password, cfg.Email.UserDomain, department, categories)
			if err != nil {
				slog.Error("无法生成随机职工", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateStaff(staff); err != nil {
				slog.Error("无法插入职工", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入职工成功", slog.Int("count", n-cnt))
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的出诊表天数")
			return
		}

		start := time.Now()
		if startDate != "" {
			start, err = time.Parse("2006-01-02", startDate)
			if err != nil {
				slog.Error("起始日期无效", slog.String("error", err.Error()))
				return
			}
		}

		cnt := n
		for i := 0; i < n; i++ {
			roster := utils.GenerateRandomDoctorRoster(department, start.AddDate(0, 0, i))
			if err := repo.UpsertDoctorRoster(roster); err != nil {
				slog.Error("无法插入出诊表", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入出诊表成功", slog.Int("count", n-cnt))
	case 3:
		seed.SeedPresetData(repo, department)
	case 4:
		if n <= 0 {
			slog.Error("请输入合法的请假申请数量")
			return
		}

		start := time.Now()
		if startDate != "" {
			start, err = time.Parse("2006-01-02", startDate)
			if err != nil {
				slog.Error("起始日期无效", slog.String("error", err.Error()))
				return
			}
		}

		staffs, err := repo.GetActiveStaffsByDepartment(department)
		if err != nil {
			slog.Error("无法查询科室职工", slog.String("error", err.Error()))
			return
		}
		if len(staffs) == 0 {
			slog.Error("科室中没有在职职工，请先插入随机职工")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			staff := staffs[rand.Intn(len(staffs))]
			leave := utils.GenerateRandomLeaveApplication(staff.ID, start, 28)
			if err := repo.CreateLeaveApplication(leave); err != nil {
				slog.Error("无法插入请假申请", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入请假申请成功", slog.Int("count", n-cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
