package mysql

import (
	"fmt"

	"github.com/reusedev/doc-hub/config"
	"github.com/reusedev/doc-hub/internal/modules/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func charset(c config.MySQL) string {
	if c.Charset == "" {
		return "utf8mb4"
	}
	return c.Charset
}

func dsn(c config.MySQL, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, database, charset(c))
}

// CreateDataBase creates the configured database if it does not exist yet.
func CreateDataBase(c config.MySQL) {
	db, err := gorm.Open(mysql.Open(dsn(c, "")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	defer sqlDB.Close()
	err = db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET %s", c.Database, charset(c))).Error
	if err != nil {
		panic(err)
	}
}

func InitMySQL(c config.MySQL) {
	db, err := gorm.Open(mysql.Open(dsn(c, c.Database)), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	DB = db
}

func Migrate() error {
	return DB.AutoMigrate(&model.Document{}, &model.Page{}, &model.Analysis{}, &model.SupplierInvokeHistory{})
}
