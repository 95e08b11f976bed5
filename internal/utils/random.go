package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomStaff 随机职工，分组从传入的分组列表中选取
func GenerateRandomStaff(password string, emailDomainName string, department string, categories []string) (*domain.Staff, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	staff := &domain.Staff{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleStaff,
		Department:   department,
		Category:     categories[rand.Intn(len(categories))],
		WeeklyTarget: int32(rand.Intn(2) + 4), // 4 或 5
		IsFlexible:   rand.Intn(4) == 0,       // 大约四分之一的职工可以跨组支援
	}

	return staff, nil
}

var doctorCodePool = []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7", "D8"}

// GenerateRandomDoctorRoster 随机某一天的医生出诊表
func GenerateRandomDoctorRoster(department string, date time.Time) *domain.DoctorRoster {
	n := rand.Intn(3) + 1
	codes := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(codes) < n {
		code := doctorCodePool[rand.Intn(len(doctorCodePool))]
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	return &domain.DoctorRoster{
		Department:    department,
		Date:          date,
		DoctorCodes:   codes,
		HasNightShift: rand.Intn(5) == 0,
	}
}

var leaveReasons = []string{"家中有事", "身体不适", "陪同家人就医", "个人事务", ""}

// GenerateRandomLeaveApplication 随机请假申请，日期落在 start 之后 days 天内
func GenerateRandomLeaveApplication(staffID int64, start time.Time, days int) *domain.LeaveApplication {
	leaveType := domain.LeaveTypeOff
	if rand.Intn(3) == 0 {
		leaveType = domain.LeaveTypeAnnual
	}

	return &domain.LeaveApplication{
		StaffID: staffID,
		Date:    start.AddDate(0, 0, rand.Intn(days)),
		Type:    leaveType,
		Status:  domain.LeaveStatusPending,
		Reason:  leaveReasons[rand.Intn(len(leaveReasons))],
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}
