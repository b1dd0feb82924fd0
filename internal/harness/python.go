package harness

func pythonCallDriver(fn string) *Driver {
	return mustCompile("python-"+fn, "def "+fn, `{{.Source}}

# Test execution
result = `+fn+`({{.Input | args "`+fn+`"}})
print(result)`)
}

// pythonDrivers are checked in order; the first match wins.
// Sources assigning "name =" read their input from the lesson text itself and
// are submitted unchanged.
var pythonDrivers = []*Driver{
	pythonCallDriver("count_marketers"),
	pythonCallDriver("sum_array"),
	mustCompile("python-assignment", "name =", `{{.Source}}`),
}
