// Package annotation — этап аннотации клеточных типов RNA образцов.
//
// Сама аннотация выполняется внешней программой (обёртка над scParadise).
// Пакет отвечает за допуск образцов (Eligible), поиск входной матрицы
// в результатах инструмента и запуск программы. Annotator никогда не
// возвращает ошибку: любой сбой сворачивается в domain.AnnotationResult.
package annotation
