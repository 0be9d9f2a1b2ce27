// Package archive хранит снимки завершённых прогонов в PostgreSQL.
//
// Архив — необязательная часть консоли (включается переменной
// CG_DB_URL): текущий прогон живёт в памяти оркестратора, в базу
// попадают только финальные снимки для истории и последующего
// разбора журналов.
package archive
