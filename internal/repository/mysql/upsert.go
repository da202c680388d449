package mysql

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// errDuplicateEntry MySQL 主键或唯一键冲突
const errDuplicateEntry = 1062

// saveRow 先更新已有的行，没有命中时插入。
// 两个请求同时首次保存时，后插入的一方会撞上主键冲突，这时改为更新先插入的那一行。
func saveRow(update func() (sql.Result, error), insert func() error) error {
	result, err := update()
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	insertErr := insert()
	if insertErr == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(insertErr, &me) && me.Number != errDuplicateEntry {
		return insertErr
	}
	// MySQL 在值没有变化时返回 0 行，所以这里不再检查影响行数
	if _, err := update(); err != nil {
		return insertErr
	}
	return nil
}
